package utils

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars     = regexp.MustCompile(`[^a-z0-9]+`)
	nonFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
)

// removeAccents maps "Informática" to "Informatica".
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify builds a URL slug: lower case ASCII words joined by "-".
func Slugify(s string) string {
	s = strings.ToLower(removeAccents(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SecureFilename strips directories and anything outside [A-Za-z0-9_.-].
// It returns "" when nothing usable is left.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = removeAccents(name)
	name = strings.Join(strings.Fields(name), "_")
	name = nonFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// SplitTags parses "a, b,,c" into unique trimmed lower-case names.
func SplitTags(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// IsSafeRedirect accepts only local paths like "/foruns/1".
func IsSafeRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
