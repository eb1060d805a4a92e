package inspector

import (
	"errors"
	"fmt"

	"github.com/aita/migi/internal/ddl"
)

// Common errors
var (
	// ErrUnsupportedConstruct is returned for DDL that parses but cannot be
	// represented in the catalog model for the active dialect
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrDuplicate            = errors.New("duplicate definition")
)

// Error is a location tagged inspection error
type Error struct {
	File string  // Source file, empty for inline SQL
	Pos  ddl.Pos // Position of the offending statement or token
	Msg  string  // Human readable description
	Err  error   // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Location(), e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Location formats the error position as file:line:col
func (e *Error) Location() string {
	if e.File == "" {
		return e.Pos.String()
	}
	return fmt.Sprintf("%s:%s", e.File, e.Pos)
}
