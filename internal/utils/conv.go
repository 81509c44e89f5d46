package utils

import (
	"strconv"
	"strings"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

// StringToUint returns 0 for anything that is not a positive integer.
func StringToUint(s string) uint {
	i, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(i)
}

// UintPtr returns nil for 0 so optional foreign keys stay NULL.
func UintPtr(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}
