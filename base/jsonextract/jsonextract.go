// Package jsonextract pulls a JSON object out of free-form model output.
package jsonextract

import (
	"strings"

	"github.com/nftprophet/goapi/domain"
)

// FirstObject returns the first balanced top-level {...} substring of the
// input. Markdown code fences are stripped first since models like to wrap
// their output in them. Braces inside JSON strings are skipped.
func FirstObject(s string) (string, error) {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	if start == -1 {
		return "", domain.ErrDecode
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", domain.ErrDecode
}
