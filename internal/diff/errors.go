package diff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aita/migi/internal/catalog"
)

// Common errors
var (
	ErrUnsupportedDiff = errors.New("unsupported diff")
	ErrDialectMismatch = errors.New("dialect mismatch")
)

// Error reports a difference that cannot be expressed as operations
type Error struct {
	Op     string             // Level being compared
	Object catalog.ObjectName // Fully qualified object name
	Err    error              // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("diff: %s", e.Op))

	if len(e.Object) > 0 {
		parts = append(parts, e.Object.String())
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

func unsupported(op string, object catalog.ObjectName, reason string) error {
	return &Error{
		Op:     op,
		Object: object,
		Err:    fmt.Errorf("%w: %s", ErrUnsupportedDiff, reason),
	}
}
