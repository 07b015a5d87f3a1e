package tensor

import (
	"fmt"
	"strings"
)

// ShapeError is returned at construction time when input shapes are invalid
// for an operation.
type ShapeError struct {
	Op     string
	Shapes []Shape
	Msg    string
}

func (e *ShapeError) Error() string {
	parts := make([]string, len(e.Shapes))
	for i, s := range e.Shapes {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s: shape error: %s (shapes %s)", e.Op, e.Msg, strings.Join(parts, ", "))
}

// TypeError is returned at construction time when input element types or
// device placements are invalid for an operation.
type TypeError struct {
	Op    string
	Specs []Spec
	Msg   string
}

func (e *TypeError) Error() string {
	parts := make([]string, len(e.Specs))
	for i, s := range e.Specs {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s: type error: %s (inputs %s)", e.Op, e.Msg, strings.Join(parts, ", "))
}
