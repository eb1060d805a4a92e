package catalog

import (
	"slices"
	"strings"
)

// ColumnOptionKind identifies a column level option
type ColumnOptionKind string

const (
	OptionNull          ColumnOptionKind = "NULL"
	OptionNotNull       ColumnOptionKind = "NOT_NULL"
	OptionDefault       ColumnOptionKind = "DEFAULT"
	OptionPrimaryKey    ColumnOptionKind = "PRIMARY_KEY"
	OptionUnique        ColumnOptionKind = "UNIQUE"
	OptionCheck         ColumnOptionKind = "CHECK"
	OptionReferences    ColumnOptionKind = "REFERENCES"
	OptionGenerated     ColumnOptionKind = "GENERATED"
	OptionIdentity      ColumnOptionKind = "IDENTITY"
	OptionAutoIncrement ColumnOptionKind = "AUTO_INCREMENT"
	OptionComment       ColumnOptionKind = "COMMENT"
	OptionOnUpdate      ColumnOptionKind = "ON_UPDATE"
	OptionCharset       ColumnOptionKind = "CHARACTER_SET"
)

// ConstraintKind identifies a table level constraint
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN_KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintCheck      ConstraintKind = "CHECK"
)

// Reference is the target of a foreign key
type Reference struct {
	Table    ObjectName `yaml:"table" json:"table"`
	Columns  []string   `yaml:"columns,omitempty" json:"columns,omitempty"`
	OnDelete string     `yaml:"on_delete,omitempty" json:"on_delete,omitempty"`
	OnUpdate string     `yaml:"on_update,omitempty" json:"on_update,omitempty"`
}

// ColumnOption is one option attached to a column definition, kept in
// declaration order
type ColumnOption struct {
	Kind       ColumnOptionKind `yaml:"kind" json:"kind"`
	Name       string           `yaml:"name,omitempty" json:"name,omitempty"`
	Expr       string           `yaml:"expr,omitempty" json:"expr,omitempty"`
	References *Reference       `yaml:"references,omitempty" json:"references,omitempty"`
}

// Column is a column definition
type Column struct {
	Name      string         `yaml:"name" json:"name"`
	DataType  string         `yaml:"type" json:"type"`
	Collation string         `yaml:"collation,omitempty" json:"collation,omitempty"`
	Options   []ColumnOption `yaml:"options,omitempty" json:"options,omitempty"`
}

// Constraint is a table level constraint
type Constraint struct {
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Kind       ConstraintKind `yaml:"kind" json:"kind"`
	Columns    []string       `yaml:"columns,omitempty" json:"columns,omitempty"`
	Expr       string         `yaml:"expr,omitempty" json:"expr,omitempty"`
	References *Reference     `yaml:"references,omitempty" json:"references,omitempty"`
}

// Index is kept as an opaque table attribute
type Index struct {
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	Unique  bool     `yaml:"unique,omitempty" json:"unique,omitempty"`
	Method  string   `yaml:"method,omitempty" json:"method,omitempty"`
	Where   string   `yaml:"where,omitempty" json:"where,omitempty"`
}

// Option is a key/value table option
type Option struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Table is a table definition. Columns keep declaration order.
type Table struct {
	Name          string       `yaml:"name" json:"name"`
	Columns       []Column     `yaml:"columns" json:"columns"`
	Constraints   []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	Indexes       []Index      `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	Engine        string       `yaml:"engine,omitempty" json:"engine,omitempty"`
	Charset       string       `yaml:"charset,omitempty" json:"charset,omitempty"`
	Collation     string       `yaml:"collation,omitempty" json:"collation,omitempty"`
	Comment       string       `yaml:"comment,omitempty" json:"comment,omitempty"`
	AutoIncrement *uint64      `yaml:"auto_increment,omitempty" json:"auto_increment,omitempty"`
	WithOptions   []Option     `yaml:"with_options,omitempty" json:"with_options,omitempty"`
	Options       []Option     `yaml:"options,omitempty" json:"options,omitempty"`
	OnCommit      string       `yaml:"on_commit,omitempty" json:"on_commit,omitempty"`
	OrderBy       []string     `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	PartitionBy   string       `yaml:"partition_by,omitempty" json:"partition_by,omitempty"`
	Strict        bool         `yaml:"strict,omitempty" json:"strict,omitempty"`
	WithoutRowID  bool         `yaml:"without_rowid,omitempty" json:"without_rowid,omitempty"`
}

// Column returns the column with the given name
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the primary key columns, declared either inline or as
// a table constraint
func (t *Table) PrimaryKey() []string {
	for _, c := range t.Constraints {
		if c.Kind == ConstraintPrimaryKey {
			return slices.Clone(c.Columns)
		}
	}
	var cols []string
	for _, c := range t.Columns {
		if c.HasOption(OptionPrimaryKey) {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// Equal reports structural equality, including column order
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Name == other.Name &&
		slices.EqualFunc(t.Columns, other.Columns, Column.Equal) &&
		slices.EqualFunc(t.Constraints, other.Constraints, Constraint.Equal) &&
		slices.EqualFunc(t.Indexes, other.Indexes, Index.Equal) &&
		t.Engine == other.Engine &&
		t.Charset == other.Charset &&
		t.Collation == other.Collation &&
		t.Comment == other.Comment &&
		equalUintPtr(t.AutoIncrement, other.AutoIncrement) &&
		slices.Equal(t.WithOptions, other.WithOptions) &&
		slices.Equal(t.Options, other.Options) &&
		t.OnCommit == other.OnCommit &&
		slices.Equal(t.OrderBy, other.OrderBy) &&
		t.PartitionBy == other.PartitionBy &&
		t.Strict == other.Strict &&
		t.WithoutRowID == other.WithoutRowID
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Columns = cloneSlice(t.Columns, Column.Clone)
	c.Constraints = cloneSlice(t.Constraints, Constraint.Clone)
	c.Indexes = cloneSlice(t.Indexes, Index.Clone)
	c.WithOptions = slices.Clone(t.WithOptions)
	c.Options = slices.Clone(t.Options)
	c.OrderBy = slices.Clone(t.OrderBy)
	if t.AutoIncrement != nil {
		v := *t.AutoIncrement
		c.AutoIncrement = &v
	}
	return &c
}

// HasOption reports whether the column carries an option of the given kind
func (c Column) HasOption(kind ColumnOptionKind) bool {
	_, ok := c.Option(kind)
	return ok
}

// Option returns the last option of the given kind
func (c Column) Option(kind ColumnOptionKind) (ColumnOption, bool) {
	for i := len(c.Options) - 1; i >= 0; i-- {
		if c.Options[i].Kind == kind {
			return c.Options[i], true
		}
	}
	return ColumnOption{}, false
}

// Nullable reports whether the column accepts NULL. Primary key columns
// are never nullable.
func (c Column) Nullable() bool {
	for i := len(c.Options) - 1; i >= 0; i-- {
		switch c.Options[i].Kind {
		case OptionNotNull, OptionPrimaryKey:
			return false
		case OptionNull:
			return true
		}
	}
	return true
}

// Default returns the column's default expression
func (c Column) Default() (string, bool) {
	opt, ok := c.Option(OptionDefault)
	return opt.Expr, ok
}

// Equal reports structural equality
func (c Column) Equal(other Column) bool {
	return c.Name == other.Name &&
		c.DataType == other.DataType &&
		c.Collation == other.Collation &&
		slices.EqualFunc(c.Options, other.Options, ColumnOption.Equal)
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	c.Options = cloneSlice(c.Options, ColumnOption.Clone)
	return c
}

// String renders the option in a compact form used in summaries
func (o ColumnOption) String() string {
	s := strings.ReplaceAll(string(o.Kind), "_", " ")
	if o.Expr != "" {
		s += " " + o.Expr
	}
	if o.References != nil {
		s += " " + o.References.Table.String()
	}
	return s
}

// Equal reports structural equality
func (o ColumnOption) Equal(other ColumnOption) bool {
	return o.Kind == other.Kind &&
		o.Name == other.Name &&
		o.Expr == other.Expr &&
		o.References.Equal(other.References)
}

// Clone returns a deep copy of the option
func (o ColumnOption) Clone() ColumnOption {
	o.References = o.References.Clone()
	return o
}

// Equal reports structural equality
func (c Constraint) Equal(other Constraint) bool {
	return c.Name == other.Name &&
		c.Kind == other.Kind &&
		slices.Equal(c.Columns, other.Columns) &&
		c.Expr == other.Expr &&
		c.References.Equal(other.References)
}

// Clone returns a deep copy of the constraint
func (c Constraint) Clone() Constraint {
	c.Columns = slices.Clone(c.Columns)
	c.References = c.References.Clone()
	return c
}

// Equal reports structural equality
func (i Index) Equal(other Index) bool {
	return i.Name == other.Name &&
		slices.Equal(i.Columns, other.Columns) &&
		i.Unique == other.Unique &&
		i.Method == other.Method &&
		i.Where == other.Where
}

// Clone returns a deep copy of the index
func (i Index) Clone() Index {
	i.Columns = slices.Clone(i.Columns)
	return i
}

// Equal reports structural equality; two nil references are equal
func (r *Reference) Equal(other *Reference) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Table.Equal(other.Table) &&
		slices.Equal(r.Columns, other.Columns) &&
		r.OnDelete == other.OnDelete &&
		r.OnUpdate == other.OnUpdate
}

// Clone returns a deep copy of the reference
func (r *Reference) Clone() *Reference {
	if r == nil {
		return nil
	}
	c := *r
	c.Table = r.Table.Clone()
	c.Columns = slices.Clone(r.Columns)
	return &c
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

func equalUintPtr(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
