package client

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/sqlkit/internal/placeholder"
)

// QueryError wraps a driver failure with the statement that caused it.
type QueryError struct {
	SQL      string
	Bindings []interface{}
	Cause    error
}

// Error renders the statement with its bindings inlined. The inlined text
// is for diagnostics only and is never executed.
func (e *QueryError) Error() string {
	return fmt.Sprintf("sqlkit: %v (SQL: %s)", e.Cause, Interpolate(e.SQL, e.Bindings))
}

// Unwrap returns the driver error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Interpolate replaces each ? outside quoted text with its binding rendered
// as a SQL literal. Surplus placeholders are left as they are.
func Interpolate(query string, bindings []interface{}) string {
	var b strings.Builder
	next := 0
	placeholder.Walk(query, func(segment string, kind placeholder.Kind) {
		if kind == placeholder.Binding && next < len(bindings) {
			b.WriteString(literal(bindings[next]))
			next++
			return
		}
		b.WriteString(segment)
	})
	return b.String()
}

// Rebind rewrites ? placeholders to PostgreSQL's $1, $2, ... and an escaped
// ?? to a literal ?.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	n := 0
	placeholder.Walk(query, func(segment string, kind placeholder.Kind) {
		switch kind {
		case placeholder.Binding:
			n++
			b.WriteString("$" + strconv.Itoa(n))
		case placeholder.Escaped:
			b.WriteString("?")
		default:
			b.WriteString(segment)
		}
	})
	return b.String()
}

func literal(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return quoteString(t)
	case []byte:
		return quoteString(string(t))
	case time.Time:
		return quoteString(t.Format("2006-01-02 15:04:05"))
	case bool:
		if t {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return quoteString(t.String())
	}
	return fmt.Sprint(v)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
