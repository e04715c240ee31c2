package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedValue is returned when a value holds a type the graph cannot represent.
var ErrMalformedValue = errors.New("malformed value")

// ErrUnboundVariable is returned when a variable does not resolve within any enclosing function.
var ErrUnboundVariable = errors.New("unbound variable")

// ErrReservedKeyCollision is returned when normalization would overwrite an existing key with a reserved one.
var ErrReservedKeyCollision = errors.New("reserved key collision")

// ErrCyclicGraph is returned when a node transitively references itself.
var ErrCyclicGraph = errors.New("cyclic graph")

// GraphError carries the location of a construction or encoding failure.
// Kind is one of the sentinel errors above, so callers can rely on errors.Is.
type GraphError struct {
	Kind   error
	Path   []string // Argument names / indices leading to the failure
	Detail string
}

// NewGraphError builds a GraphError with a formatted detail message.
func NewGraphError(kind error, path []string, format string, args ...any) *GraphError {
	return &GraphError{
		Kind:   kind,
		Path:   append([]string(nil), path...),
		Detail: fmt.Sprintf(format, args...),
	}
}

func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *GraphError) Unwrap() error {
	return e.Kind
}
