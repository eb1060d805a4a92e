package diff

import (
	"github.com/aita/migi/internal/catalog"
)

// OperationKind represents the type of migration operation
type OperationKind string

const (
	KindCreateDatabase OperationKind = "CREATE_DATABASE"
	KindDropDatabase   OperationKind = "DROP_DATABASE"

	KindCreateSchema OperationKind = "CREATE_SCHEMA"
	KindDropSchema   OperationKind = "DROP_SCHEMA"

	KindCreateTable OperationKind = "CREATE_TABLE"
	KindDropTable   OperationKind = "DROP_TABLE"

	KindAddColumn   OperationKind = "ADD_COLUMN"
	KindDropColumn  OperationKind = "DROP_COLUMN"
	KindAlterColumn OperationKind = "ALTER_COLUMN"
)

// Operation is a single abstract DDL change. The concrete types are
// CreateDatabase, DropDatabase, CreateSchema, DropSchema, CreateTable,
// DropTable, AddColumn, DropColumn and AlterColumn.
type Operation interface {
	Kind() OperationKind
	// Object is the fully qualified name of the object the operation targets
	Object() catalog.ObjectName
	// IsDestructive reports whether applying the operation could lose data
	IsDestructive() bool
}

// CreateDatabase creates a catalog
type CreateDatabase struct {
	Name string
}

// DropDatabase drops a catalog
type DropDatabase struct {
	Name string
}

// CreateSchema creates a schema; Name is [catalog, schema]
type CreateSchema struct {
	Name catalog.ObjectName
}

// DropSchema drops a schema; Name is [catalog, schema]
type DropSchema struct {
	Name catalog.ObjectName
}

// CreateTable creates a table; Name is [catalog, schema, table]
type CreateTable struct {
	Name  catalog.ObjectName
	Table *catalog.Table
}

// DropTable drops a table. Table holds the previous definition.
type DropTable struct {
	Name  catalog.ObjectName
	Table *catalog.Table
}

// AddColumn appends a column to a table
type AddColumn struct {
	Table  catalog.ObjectName
	Column catalog.Column
}

// DropColumn removes a column from a table
type DropColumn struct {
	Table  catalog.ObjectName
	Column catalog.Column
}

// AlterColumn transitions a kept column from its previous to its current
// definition. It is emitted for every kept column, even unchanged ones.
type AlterColumn struct {
	Table    catalog.ObjectName
	Previous catalog.Column
	Current  catalog.Column
}

func (*CreateDatabase) Kind() OperationKind { return KindCreateDatabase }
func (*DropDatabase) Kind() OperationKind   { return KindDropDatabase }
func (*CreateSchema) Kind() OperationKind   { return KindCreateSchema }
func (*DropSchema) Kind() OperationKind     { return KindDropSchema }
func (*CreateTable) Kind() OperationKind    { return KindCreateTable }
func (*DropTable) Kind() OperationKind      { return KindDropTable }
func (*AddColumn) Kind() OperationKind      { return KindAddColumn }
func (*DropColumn) Kind() OperationKind     { return KindDropColumn }
func (*AlterColumn) Kind() OperationKind    { return KindAlterColumn }

func (o *CreateDatabase) Object() catalog.ObjectName { return catalog.ObjectName{o.Name} }
func (o *DropDatabase) Object() catalog.ObjectName   { return catalog.ObjectName{o.Name} }
func (o *CreateSchema) Object() catalog.ObjectName   { return o.Name }
func (o *DropSchema) Object() catalog.ObjectName     { return o.Name }
func (o *CreateTable) Object() catalog.ObjectName    { return o.Name }
func (o *DropTable) Object() catalog.ObjectName      { return o.Name }

func (o *AddColumn) Object() catalog.ObjectName {
	return append(o.Table.Clone(), o.Column.Name)
}

func (o *DropColumn) Object() catalog.ObjectName {
	return append(o.Table.Clone(), o.Column.Name)
}

func (o *AlterColumn) Object() catalog.ObjectName {
	return append(o.Table.Clone(), o.Current.Name)
}

func (*CreateDatabase) IsDestructive() bool { return false }
func (*DropDatabase) IsDestructive() bool   { return true }
func (*CreateSchema) IsDestructive() bool   { return false }
func (*DropSchema) IsDestructive() bool     { return true }
func (*CreateTable) IsDestructive() bool    { return false }
func (*DropTable) IsDestructive() bool      { return true }
func (*DropColumn) IsDestructive() bool     { return true }

// IsDestructive reports whether adding the column fails on tables that
// already hold rows: NOT NULL without a default
func (o *AddColumn) IsDestructive() bool {
	_, hasDefault := o.Column.Default()
	return !o.Column.Nullable() && !hasDefault
}

// IsDestructive reports whether the alteration narrows the column type or
// makes it NOT NULL without a default
func (o *AlterColumn) IsDestructive() bool {
	changes := o.Changes()
	if changes.Type && isUnsafeTypeChange(o.Previous.DataType, o.Current.DataType) {
		return true
	}
	_, hasDefault := o.Current.Default()
	return o.Previous.Nullable() && !o.Current.Nullable() && !hasDefault
}

var (
	_ Operation = (*CreateDatabase)(nil)
	_ Operation = (*DropDatabase)(nil)
	_ Operation = (*CreateSchema)(nil)
	_ Operation = (*DropSchema)(nil)
	_ Operation = (*CreateTable)(nil)
	_ Operation = (*DropTable)(nil)
	_ Operation = (*AddColumn)(nil)
	_ Operation = (*DropColumn)(nil)
	_ Operation = (*AlterColumn)(nil)
)
