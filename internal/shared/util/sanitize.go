package util

import (
	"errors"
	"strings"
)

// Storage keys embed the sanitized name; S3 keys top out at 1024 bytes so
// the name portion gets a conservative cap.
const maxFileNameLen = 200

// SanitizeFileName normalizes an uploaded document name for use inside a
// storage key: path separators and control characters are replaced, and
// overlong names are truncated. Traversal patterns are rejected outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if runes := []rune(s); len(runes) > maxFileNameLen {
		s = string(runes[:maxFileNameLen])
	}
	return s, nil
}
