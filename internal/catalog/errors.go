package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid name")
)

// Error describes a failed lookup or insertion in the catalog model
type Error struct {
	Op     string // Operation that failed
	Object string // Kind of object involved: catalog, schema or table
	Name   string // Qualified name of the object
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("catalog: %s", e.Op))

	if e.Object != "" || e.Name != "" {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %q", e.Object, e.Name)))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFound(op, object string, name ...string) error {
	return &Error{Op: op, Object: object, Name: ObjectName(name).String(), Err: ErrNotFound}
}
