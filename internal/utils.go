package internal

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// PhotoFilename derives the local filename of a photo from the last path
// segment of its remote URL, e.g.
// https://live.staticflickr.com/65535/5321_ab12_m.jpg -> 5321_ab12_m.jpg
func PhotoFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid photo url: %w", err)
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("photo url %q has no file name", rawURL)
	}

	name := SanitizeFilename(base)
	if name == "" {
		return "", fmt.Errorf("photo url %q has no usable file name", rawURL)
	}
	return name, nil
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

// isAlphaNumeric checks if a rune is alphanumeric
func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
