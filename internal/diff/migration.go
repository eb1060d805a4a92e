package diff

import (
	"fmt"
	"strings"

	"github.com/aita/migi/internal/dialect"
)

// Migration is the ordered list of operations produced by a diff.
// DefaultCatalog is the current model's default catalog; renderers leave
// objects in it unqualified where the dialect qualifies by catalog.
type Migration struct {
	Dialect        dialect.Dialect
	DefaultCatalog string
	Operations     []Operation
}

// IsEmpty reports whether the migration carries no operations at all
func (m *Migration) IsEmpty() bool {
	return len(m.Operations) == 0
}

// Effective returns the operations without no-op column alterations
func (m *Migration) Effective() []Operation {
	ops := make([]Operation, 0, len(m.Operations))
	for _, op := range m.Operations {
		if alter, ok := op.(*AlterColumn); ok && alter.IsNoop() {
			continue
		}
		ops = append(ops, op)
	}
	return ops
}

// HasDestructiveChanges reports whether any operation may lose data
func (m *Migration) HasDestructiveChanges() bool {
	for _, op := range m.Operations {
		if op.IsDestructive() {
			return true
		}
	}
	return false
}

// Destructive returns descriptions of operations that may lose data
func (m *Migration) Destructive() []string {
	var out []string
	for _, op := range m.Operations {
		if op.IsDestructive() {
			out = append(out, Describe(op))
		}
	}
	return out
}

// Counts returns the number of effective operations per kind
func (m *Migration) Counts() map[OperationKind]int {
	counts := make(map[OperationKind]int)
	for _, op := range m.Effective() {
		counts[op.Kind()]++
	}
	return counts
}

// Summary creates a human-readable summary of the migration
func (m *Migration) Summary() string {
	counts := m.Counts()

	labels := []struct {
		kind  OperationKind
		label string
	}{
		{KindCreateDatabase, "new database(s)"},
		{KindDropDatabase, "dropped database(s)"},
		{KindCreateSchema, "new schema(s)"},
		{KindDropSchema, "dropped schema(s)"},
		{KindCreateTable, "new table(s)"},
		{KindDropTable, "dropped table(s)"},
		{KindAddColumn, "new column(s)"},
		{KindDropColumn, "dropped column(s)"},
		{KindAlterColumn, "altered column(s)"},
	}

	parts := []string{}
	for _, l := range labels {
		if c := counts[l.kind]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, l.label))
		}
	}

	if len(parts) == 0 {
		return "No changes detected"
	}

	summary := strings.Join(parts, ", ")
	if m.HasDestructiveChanges() {
		summary += " [WARNING: Contains unsafe changes]"
	}

	return summary
}

// Describe returns a one line description of an operation
func Describe(op Operation) string {
	switch o := op.(type) {
	case *CreateDatabase:
		return fmt.Sprintf("Create database %s", o.Name)
	case *DropDatabase:
		return fmt.Sprintf("Drop database %s", o.Name)
	case *CreateSchema:
		return fmt.Sprintf("Create schema %s", o.Name)
	case *DropSchema:
		return fmt.Sprintf("Drop schema %s", o.Name)
	case *CreateTable:
		return fmt.Sprintf("Create table %s (%d columns)", o.Name, len(o.Table.Columns))
	case *DropTable:
		return fmt.Sprintf("Drop table %s", o.Name)
	case *AddColumn:
		return fmt.Sprintf("Add column %s %s", o.Object(), o.Column.DataType)
	case *DropColumn:
		return fmt.Sprintf("Drop column %s", o.Object())
	case *AlterColumn:
		return fmt.Sprintf("Alter column %s (%s)", o.Object(), o.Describe())
	default:
		return fmt.Sprintf("Operation %T", op)
	}
}
