package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONObject indicates that no balanced JSON object was found in a response.
var ErrNoJSONObject = errors.New("no JSON object in response")

// ExtractJSONObject returns the first balanced {...} substring of s.
// Model responses often wrap the object in prose or markdown fences, so the
// scanner skips everything before the first opening brace and tracks string
// literals and escapes while balancing braces.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
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

	return "", ErrNoJSONObject
}
