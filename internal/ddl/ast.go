package ddl

import (
	"strings"

	"github.com/aita/migi/internal/catalog"
)

// Statement is one parsed DDL statement. The concrete types are
// *CreateTable, *CreateSchema, *CreateDatabase, *CreateIndex, *AlterTable,
// *CommentOn and *Other.
type Statement interface {
	Position() Pos
	statement()
}

// Ident is an identifier as written in the source
type Ident struct {
	Value  string
	Quoted bool
	Pos    Pos
}

// Name is a dot separated object name
type Name []Ident

func (n Name) String() string {
	parts := make([]string, len(n))
	for i, id := range n {
		parts[i] = id.Value
	}
	return strings.Join(parts, ".")
}

// Position returns the position of the first part
func (n Name) Position() Pos {
	if len(n) == 0 {
		return Pos{}
	}
	return n[0].Pos
}

// Clause is a keyword introduced construct with its position. Key and Text
// carry option style clauses (WITH (key = value), ENGINE = InnoDB); List
// carries column lists such as ORDER BY.
type Clause struct {
	Keyword string
	Key     string
	Text    string
	List    []string
	Pos     Pos
}

// Reference is a REFERENCES target
type Reference struct {
	Table    Name
	Columns  []Ident
	OnDelete string
	OnUpdate string
}

// ColumnOption is one option of a column definition
type ColumnOption struct {
	Kind      catalog.ColumnOptionKind
	Name      *Ident
	Expr      string
	Reference *Reference
	Pos       Pos
}

// ColumnDef is a column definition
type ColumnDef struct {
	Name      Ident
	Type      string
	Collation string
	Options   []ColumnOption
}

// TableConstraint is a table level constraint
type TableConstraint struct {
	Name      *Ident
	Kind      catalog.ConstraintKind
	Columns   []Ident
	Expr      string
	Reference *Reference
	Pos       Pos
}

// IndexDef is an index declared inside a table body or by CREATE INDEX.
// Expression elements are kept verbatim as quoted identifiers.
type IndexDef struct {
	Name    *Ident
	Unique  bool
	Method  string
	Columns []Ident
	Where   string
	Pos     Pos
}

// CreateTable is CREATE TABLE
type CreateTable struct {
	At          Pos
	Name        Name
	Modifiers   []Clause // TEMPORARY, UNLOGGED, EXTERNAL, OR REPLACE, IF NOT EXISTS ...
	Columns     []ColumnDef
	Constraints []TableConstraint
	Indexes     []IndexDef
	Clauses     []Clause // LIKE, AS, WITH, PARTITION BY, ENGINE ...
	Unsupported []Clause // table body elements that have no model counterpart
}

// HasModifier reports whether the statement carries the given modifier
func (s *CreateTable) HasModifier(keyword string) bool {
	for _, m := range s.Modifiers {
		if m.Keyword == keyword {
			return true
		}
	}
	return false
}

// CreateSchema is CREATE SCHEMA
type CreateSchema struct {
	At          Pos
	Name        Name
	IfNotExists bool
}

// CreateDatabase is CREATE DATABASE
type CreateDatabase struct {
	At          Pos
	Name        Ident
	IfNotExists bool
}

// CreateIndex is CREATE INDEX
type CreateIndex struct {
	At    Pos
	Table Name
	Index IndexDef
}

// AlterAction is one action of ALTER TABLE
type AlterAction interface {
	alterAction()
}

// AddColumnAction is ADD [COLUMN]. First and After carry MySQL column
// placement.
type AddColumnAction struct {
	Column      ColumnDef
	IfNotExists bool
	First       bool
	After       *Ident
	Pos         Pos
}

// DropColumnAction is DROP [COLUMN]
type DropColumnAction struct {
	Column   Ident
	IfExists bool
	Pos      Pos
}

// AddConstraintAction is ADD [CONSTRAINT name] constraint
type AddConstraintAction struct {
	Constraint TableConstraint
	Index      *IndexDef
	Pos        Pos
}

// DropConstraintAction is DROP CONSTRAINT
type DropConstraintAction struct {
	Name     Ident
	IfExists bool
	Pos      Pos
}

// OtherAction is any ALTER TABLE action without a model counterpart
type OtherAction struct {
	Clause Clause
}

func (*AddColumnAction) alterAction()      {}
func (*DropColumnAction) alterAction()     {}
func (*AddConstraintAction) alterAction()  {}
func (*DropConstraintAction) alterAction() {}
func (*OtherAction) alterAction()          {}

// AlterTable is ALTER TABLE
type AlterTable struct {
	At      Pos
	Table   Name
	Actions []AlterAction
}

// CommentOn is COMMENT ON <target> name IS 'text'
type CommentOn struct {
	At      Pos
	Target  string
	Name    Name
	Comment string
	IsNull  bool
}

// Other is a statement without a model counterpart, such as CREATE VIEW
// or INSERT. Keyword holds its leading keywords.
type Other struct {
	At      Pos
	Keyword string
}

func (s *CreateTable) Position() Pos    { return s.At }
func (s *CreateSchema) Position() Pos   { return s.At }
func (s *CreateDatabase) Position() Pos { return s.At }
func (s *CreateIndex) Position() Pos    { return s.At }
func (s *AlterTable) Position() Pos     { return s.At }
func (s *CommentOn) Position() Pos      { return s.At }
func (s *Other) Position() Pos          { return s.At }

func (*CreateTable) statement()    {}
func (*CreateSchema) statement()   {}
func (*CreateDatabase) statement() {}
func (*CreateIndex) statement()    {}
func (*AlterTable) statement()     {}
func (*CommentOn) statement()      {}
func (*Other) statement()          {}
