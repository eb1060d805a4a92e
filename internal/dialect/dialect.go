package dialect

import (
	"fmt"
	"strings"
)

// Dialect identifies the SQL flavor a schema is written in
type Dialect int

const (
	Postgres Dialect = iota
	MySQL
	SQLite
)

// All lists every supported dialect
var All = []Dialect{Postgres, MySQL, SQLite}

// Arity describes which qualifiers a table name may carry
type Arity struct {
	Catalog bool
	Schema  bool
}

// MaxParts returns the largest number of dot separated parts a table name may have
func (a Arity) MaxParts() int {
	n := 1
	if a.Catalog {
		n++
	}
	if a.Schema {
		n++
	}
	return n
}

// Parse converts a dialect name into a Dialect
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Postgres, fmt.Errorf("unsupported dialect: %q", name)
	}
}

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Valid reports whether d is one of the known dialects
func (d Dialect) Valid() bool {
	switch d {
	case Postgres, MySQL, SQLite:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Dialect) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unsupported dialect: %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Arity returns the qualifiers a table name may carry in this dialect.
// Postgres allows catalog.schema.table, MySQL allows database.table and
// SQLite only allows bare names.
func (d Dialect) Arity() Arity {
	switch d {
	case Postgres:
		return Arity{Catalog: true, Schema: true}
	case MySQL:
		return Arity{Catalog: true}
	case SQLite:
		return Arity{}
	default:
		panic(fmt.Sprintf("dialect: unknown dialect %d", int(d)))
	}
}

// QuoteRune returns the character used to quote identifiers
func (d Dialect) QuoteRune() rune {
	switch d {
	case Postgres:
		return '"'
	case MySQL, SQLite:
		return '`'
	default:
		panic(fmt.Sprintf("dialect: unknown dialect %d", int(d)))
	}
}

// Quote wraps an identifier in the dialect's quote character, doubling any
// embedded quote characters
func (d Dialect) Quote(ident string) string {
	q := string(d.QuoteRune())
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// QuoteName quotes each part of a qualified name and joins them with dots
func (d Dialect) QuoteName(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, d.Quote(p))
	}
	return strings.Join(quoted, ".")
}

// FoldIdent applies the dialect's case folding to an identifier.
// Postgres folds unquoted identifiers to lower case; MySQL and SQLite keep
// identifiers as written.
func (d Dialect) FoldIdent(raw string, quoted bool) string {
	switch d {
	case Postgres:
		if quoted {
			return raw
		}
		return strings.ToLower(raw)
	case MySQL, SQLite:
		return raw
	default:
		panic(fmt.Sprintf("dialect: unknown dialect %d", int(d)))
	}
}

// HasSchemas reports whether the dialect has a schema level below databases
func (d Dialect) HasSchemas() bool {
	switch d {
	case Postgres:
		return true
	case MySQL, SQLite:
		return false
	default:
		panic(fmt.Sprintf("dialect: unknown dialect %d", int(d)))
	}
}

// HasDatabases reports whether CREATE DATABASE is expressible in the dialect
func (d Dialect) HasDatabases() bool {
	switch d {
	case Postgres, MySQL:
		return true
	case SQLite:
		return false
	default:
		panic(fmt.Sprintf("dialect: unknown dialect %d", int(d)))
	}
}

// DefaultSchema returns the schema name a fresh database uses
func (d Dialect) DefaultSchema() string {
	switch d {
	case Postgres:
		return "public"
	case MySQL:
		return ""
	case SQLite:
		return "main"
	default:
		panic(fmt.Sprintf("dialect: unknown dialect %d", int(d)))
	}
}
