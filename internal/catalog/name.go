package catalog

import (
	"fmt"
	"strings"

	"github.com/aita/migi/internal/dialect"
)

// TableName is a possibly qualified table reference. Empty Catalog or
// Schema means the reference relies on the model's defaults.
type TableName struct {
	Catalog string
	Schema  string
	Table   string
}

func (n TableName) String() string {
	return ObjectName{n.Catalog, n.Schema, n.Table}.String()
}

// ObjectName is a fully qualified, dot separated object name
type ObjectName []string

// String joins the non-empty parts with dots
func (n ObjectName) String() string {
	parts := make([]string, 0, len(n))
	for _, p := range n {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Last returns the unqualified name
func (n ObjectName) Last() string {
	if len(n) == 0 {
		return ""
	}
	return n[len(n)-1]
}

// Clone returns a copy of the name
func (n ObjectName) Clone() ObjectName {
	if n == nil {
		return nil
	}
	return append(ObjectName(nil), n...)
}

// Equal reports whether both names have identical parts
func (n ObjectName) Equal(other ObjectName) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

// ResolveTableName maps the dot separated parts of a table reference to a
// TableName according to the dialect's qualification rules.
//
//	parts  postgres                  mysql             sqlite
//	1      table                     table             table
//	2      schema.table              catalog.table     invalid
//	3      catalog.schema.table      invalid           invalid
func ResolveTableName(parts []string, d dialect.Dialect) (TableName, error) {
	if !d.Valid() {
		return TableName{}, invalidName(parts, d)
	}
	for _, p := range parts {
		if p == "" {
			return TableName{}, invalidName(parts, d)
		}
	}

	arity := d.Arity()

	switch len(parts) {
	case 1:
		return TableName{Table: parts[0]}, nil
	case 2:
		switch {
		case arity.Schema:
			return TableName{Schema: parts[0], Table: parts[1]}, nil
		case arity.Catalog:
			return TableName{Catalog: parts[0], Table: parts[1]}, nil
		}
	case 3:
		if arity.Catalog && arity.Schema {
			return TableName{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, nil
		}
	}

	return TableName{}, invalidName(parts, d)
}

func invalidName(parts []string, d dialect.Dialect) error {
	return &Error{
		Op:     "resolve table name",
		Object: "table",
		Name:   strings.Join(parts, "."),
		Err:    fmt.Errorf("%w: %d part(s) not allowed in %s", ErrInvalidName, len(parts), d),
	}
}
