/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sqltext finds the regions of a SQL text that never hold
// placeholders: quoted strings, quoted identifiers and comments.
package sqltext

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnterminatedQuote is returned for a string or identifier that is never closed.
	ErrUnterminatedQuote = errors.New("unterminated quote")

	// ErrUnterminatedComment is returned for a /* comment that is never closed.
	ErrUnterminatedComment = errors.New("unterminated block comment")
)

// Skip returns the end of the quoted text or comment starting at s[i],
// or i when none starts there.
func Skip(s string, i int) (int, error) {
	if i >= len(s) {
		return i, nil
	}
	switch c := s[i]; {
	case c == '\'' || c == '"' || c == '`':
		return skipQuoted(s, i+1, c)
	case strings.HasPrefix(s[i:], "--"):
		return skipLineComment(s, i+2), nil
	case strings.HasPrefix(s[i:], "/*"):
		return skipBlockComment(s, i+2)
	}
	return i, nil
}

func skipQuoted(s string, i int, quote byte) (int, error) {
	for i < len(s) {
		c := s[i]
		i++
		if c != quote {
			continue
		}
		// doubled quotes escape themselves
		if i < len(s) && s[i] == quote {
			i++
			continue
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: %c", ErrUnterminatedQuote, quote)
}

func skipLineComment(s string, i int) int {
	if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(s)
}

func skipBlockComment(s string, i int) (int, error) {
	if j := strings.Index(s[i:], "*/"); j >= 0 {
		return i + j + 2, nil
	}
	return 0, ErrUnterminatedComment
}

// Placeholders returns the byte offsets of the ? placeholders of query.
// Unterminated quotes and comments run to the end of the query.
func Placeholders(query string) []int {
	var offsets []int
	for i := 0; i < len(query); {
		end, err := Skip(query, i)
		switch {
		case err != nil:
			return offsets
		case end > i:
			i = end
		default:
			if query[i] == '?' {
				offsets = append(offsets, i)
			}
			i++
		}
	}
	return offsets
}

// EndsInLineComment reports whether the last line of query is taken by a
// -- comment, so that text appended to query would be commented out.
func EndsInLineComment(query string) bool {
	for i := 0; i < len(query); {
		end, err := Skip(query, i)
		if err != nil {
			return false
		}
		if end == len(query) && strings.HasPrefix(query[i:], "--") {
			return !strings.HasSuffix(query, "\n")
		}
		if end > i {
			i = end
			continue
		}
		i++
	}
	return false
}
