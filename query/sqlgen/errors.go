package sqlgen

import (
	"errors"
	"fmt"
)

// Sentinel errors for query construction and compilation.
var (
	// ErrUnknownDialect is returned when no grammar exists for a driver name.
	ErrUnknownDialect = errors.New("sqlkit: unknown dialect")

	// ErrUnsupportedFeature indicates a clause the dialect cannot express.
	ErrUnsupportedFeature = errors.New("sqlkit: unsupported feature")

	// ErrUnsupportedPredicate indicates a predicate kind with no compiler.
	ErrUnsupportedPredicate = errors.New("sqlkit: unsupported predicate")

	// ErrInvalidOperator indicates an operator outside the dialect's operator set.
	ErrInvalidOperator = errors.New("sqlkit: invalid operator")

	// ErrInvalidJoinType indicates an unknown join type.
	ErrInvalidJoinType = errors.New("sqlkit: invalid join type")

	// ErrInvalidAggregate indicates an unknown aggregate function.
	ErrInvalidAggregate = errors.New("sqlkit: invalid aggregate function")

	// ErrInvalidDirection indicates an order direction other than asc or desc.
	ErrInvalidDirection = errors.New("sqlkit: invalid order direction")

	// ErrMissingTable indicates a statement that requires a table but has none.
	ErrMissingTable = errors.New("sqlkit: missing table")

	// ErrBindingMismatch indicates a placeholder count that differs from the bindings supplied.
	ErrBindingMismatch = errors.New("sqlkit: binding count mismatch")

	// ErrInvalidArgumentCount indicates a call with the wrong number of arguments.
	ErrInvalidArgumentCount = errors.New("sqlkit: invalid argument count")

	// ErrInvalidValues indicates insert/update values that cannot be compiled.
	ErrInvalidValues = errors.New("sqlkit: invalid values")

	// ErrUnknownMacro indicates a macro name missing from the registry.
	ErrUnknownMacro = errors.New("sqlkit: unknown macro")
)

// GrammarError describes a compilation or construction failure and the
// method or clause that caused it.
type GrammarError struct {
	// Dialect is the grammar name (empty for builder-side validation).
	Dialect string

	// Component is the method or clause, e.g. "whereJsonContains" or "join".
	Component string

	// Detail is an optional human-readable explanation.
	Detail string

	// Err is one of the sentinel errors above.
	Err error
}

// Error implements the error interface.
func (e *GrammarError) Error() string {
	msg := e.Err.Error()
	if e.Component != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Component)
	}
	if e.Dialect != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Dialect)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *GrammarError) Unwrap() error {
	return e.Err
}

// NewError creates a GrammarError for a builder-side component.
func NewError(component string, err error, detail string) *GrammarError {
	return &GrammarError{
		Component: component,
		Detail:    detail,
		Err:       err,
	}
}

func (g *base) errorf(component string, err error, format string, args ...interface{}) *GrammarError {
	return &GrammarError{
		Dialect:   g.name,
		Component: component,
		Detail:    fmt.Sprintf(format, args...),
		Err:       err,
	}
}
