// Package placeholder finds ? bindings in SQL text.
//
// A ? inside a single-quoted string, a double-quoted identifier or a
// backticked identifier is text. Outside them, ?? is an escaped literal ?
// so PostgreSQL operators such as ? and ?| can be written in raw fragments.
package placeholder

import "strings"

// Kind classifies a segment reported by Walk.
type Kind int

const (
	// Text is ordinary SQL text.
	Text Kind = iota
	// Binding is a ? placeholder.
	Binding
	// Escaped is ?? standing for a literal ?.
	Escaped
)

// Walk splits query into segments in order.
func Walk(query string, fn func(segment string, kind Kind)) {
	var quote byte
	start := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			if start < i {
				fn(query[start:i], Text)
			}
			if i+1 < len(query) && query[i+1] == '?' {
				fn("??", Escaped)
				i++
			} else {
				fn("?", Binding)
			}
			start = i + 1
		}
	}
	if start < len(query) {
		fn(query[start:], Text)
	}
}

// Count returns the number of placeholders in query.
func Count(query string) int {
	if !strings.Contains(query, "?") {
		return 0
	}
	n := 0
	Walk(query, func(_ string, kind Kind) {
		if kind == Binding {
			n++
		}
	})
	return n
}
