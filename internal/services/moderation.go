package services

import (
	"errors"
	"strings"
)

var ErrBlockedContent = errors.New("o conteúdo contém termos não permitidos")

// Moderator rejects posts containing any banned word (case-insensitive substring).
type Moderator struct {
	words []string
}

func NewModerator(words []string) *Moderator {
	m := &Moderator{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m.words = append(m.words, w)
		}
	}
	return m
}

// Match returns the first banned word found in any of texts.
func (m *Moderator) Match(texts ...string) (string, bool) {
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, w := range m.words {
			if strings.Contains(lower, w) {
				return w, true
			}
		}
	}
	return "", false
}

func (m *Moderator) Check(texts ...string) error {
	if _, found := m.Match(texts...); found {
		return ErrBlockedContent
	}
	return nil
}
