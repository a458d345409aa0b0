package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes all whitespace and punctuation that
// differs between the curated sheet and the basis api, "Mike  Miller, Jr." and
// "mike miller jr" normalize to the same string.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = strings.NewReplacer(".", "", ",", "", "'", "", "\"", "").Replace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// CleanString trims whitespace and normalizes line endings, an empty result means null.
func CleanString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return "", false
	}
	return s, true
}
