package util

import (
	"errors"
	"strings"
)

// SanitizeFileName flattens path separators and rejects names carrying a
// ".." path segment. Dots inside a segment ("report..final.txt") are fine.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	segments := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for _, seg := range segments {
		if seg == ".." {
			return "", errors.New("invalid file name")
		}
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s, nil
}

// FileExtension returns the lower-cased extension of name without the dot,
// or "" when the name has none.
func FileExtension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
