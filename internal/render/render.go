package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
	"github.com/aita/migi/internal/diff"
	"github.com/aita/migi/internal/logger"
)

// ErrUnsupported is returned for operations the dialect cannot express
var ErrUnsupported = errors.New("unsupported operation")

// Error describes an operation that could not be rendered
type Error struct {
	Op     diff.OperationKind
	Object catalog.ObjectName
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render: %s %s: %v", e.Op, e.Object, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Statement is one rendered SQL statement
type Statement struct {
	SQL         string
	Destructive bool
	Comment     string
}

// Renderer turns migration operations into SQL for one dialect
type Renderer struct {
	dialect dialect.Dialect
	planner migrate.PlanApplier
	log     logger.Logger
}

// New creates a renderer for the dialect
func New(d dialect.Dialect) *Renderer {
	return &Renderer{
		dialect: d,
		planner: planner(d),
		log:     logger.Render(),
	}
}

func planner(d dialect.Dialect) migrate.PlanApplier {
	switch d {
	case dialect.Postgres:
		return postgres.DefaultPlan
	case dialect.MySQL:
		return mysql.DefaultPlan
	case dialect.SQLite:
		return sqlite.DefaultPlan
	default:
		panic(fmt.Sprintf("render: unknown dialect %d", int(d)))
	}
}

// Render converts every operation, strictly in list order. No-op column
// alterations and schema operations on dialects without schemas produce
// no statements.
func (r *Renderer) Render(ctx context.Context, m *diff.Migration) ([]Statement, error) {
	if m.Dialect != r.dialect {
		return nil, fmt.Errorf("render: %w: migration is %s, renderer is %s", diff.ErrDialectMismatch, m.Dialect, r.dialect)
	}

	var out []Statement
	for _, op := range m.Operations {
		stmts, err := r.operation(ctx, m.DefaultCatalog, op)
		if err != nil {
			return nil, &Error{Op: op.Kind(), Object: op.Object(), Err: err}
		}
		if len(stmts) == 0 {
			r.log.Debug("Operation rendered no SQL", "operation", diff.Describe(op))
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// RenderSQL renders the migration as a single script
func (r *Renderer) RenderSQL(ctx context.Context, m *diff.Migration) (string, error) {
	stmts, err := r.Render(ctx, m)
	if err != nil {
		return "", err
	}
	return Join(stmts), nil
}

// Join formats statements as a script, each preceded by its comment
func Join(stmts []Statement) string {
	var sb strings.Builder
	for i, stmt := range stmts {
		if i > 0 {
			sb.WriteString("\n")
		}
		if stmt.Comment != "" {
			fmt.Fprintf(&sb, "-- %s\n", stmt.Comment)
		}
		if stmt.Destructive {
			sb.WriteString("-- WARNING: destructive change\n")
		}
		sb.WriteString(strings.TrimSuffix(stmt.SQL, ";"))
		sb.WriteString(";\n")
	}
	return sb.String()
}

func (r *Renderer) operation(ctx context.Context, defaultCatalog string, op diff.Operation) ([]Statement, error) {
	switch o := op.(type) {
	case *diff.CreateDatabase:
		if !r.dialect.HasDatabases() {
			return nil, fmt.Errorf("%w: databases are not supported in %s", ErrUnsupported, r.dialect)
		}
		return []Statement{{SQL: "CREATE DATABASE " + r.dialect.Quote(o.Name)}}, nil

	case *diff.DropDatabase:
		if !r.dialect.HasDatabases() {
			return nil, fmt.Errorf("%w: databases are not supported in %s", ErrUnsupported, r.dialect)
		}
		return []Statement{{SQL: "DROP DATABASE " + r.dialect.Quote(o.Name), Destructive: true}}, nil

	case *diff.CreateSchema:
		if !r.dialect.HasSchemas() {
			return nil, nil
		}
		return r.plan(ctx, op, &schema.AddSchema{S: &schema.Schema{Name: o.Name.Last()}})

	case *diff.DropSchema:
		if !r.dialect.HasSchemas() {
			return nil, nil
		}
		return r.plan(ctx, op, &schema.DropSchema{S: &schema.Schema{Name: o.Name.Last()}})

	case *diff.CreateTable:
		t, err := r.table(r.schemaOf(o.Name, defaultCatalog), o.Table)
		if err != nil {
			return nil, err
		}
		return r.plan(ctx, op, &schema.AddTable{T: t})

	case *diff.DropTable:
		t, err := r.dropTarget(r.schemaOf(o.Name, defaultCatalog), o.Name.Last(), o.Table)
		if err != nil {
			return nil, err
		}
		return r.plan(ctx, op, &schema.DropTable{T: t})

	case *diff.AddColumn:
		t := &schema.Table{Name: o.Table.Last(), Schema: r.schemaOf(o.Table, defaultCatalog)}
		c, _, err := r.column(o.Column)
		if err != nil {
			return nil, err
		}
		t.Columns = []*schema.Column{c}
		return r.plan(ctx, op, &schema.ModifyTable{T: t, Changes: []schema.Change{&schema.AddColumn{C: c}}})

	case *diff.DropColumn:
		t := &schema.Table{Name: o.Table.Last(), Schema: r.schemaOf(o.Table, defaultCatalog)}
		if r.dialect == dialect.SQLite {
			// the planner rebuilds the table, which needs its full definition
			sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", r.tableName(t), r.dialect.Quote(o.Column.Name))
			return []Statement{{SQL: sql, Destructive: true}}, nil
		}
		c, _, err := r.column(o.Column)
		if err != nil {
			return nil, err
		}
		t.Columns = []*schema.Column{c}
		return r.plan(ctx, op, &schema.ModifyTable{T: t, Changes: []schema.Change{&schema.DropColumn{C: c}}})

	case *diff.AlterColumn:
		changes := o.Changes()
		if !changes.Any() {
			return nil, nil
		}
		if r.dialect == dialect.SQLite {
			return nil, fmt.Errorf("%w: altering column %s (%s) requires a table rebuild in sqlite", ErrUnsupported, o.Current.Name, o.Describe())
		}

		from, _, err := r.column(o.Previous)
		if err != nil {
			return nil, err
		}
		to, _, err := r.column(o.Current)
		if err != nil {
			return nil, err
		}

		t := &schema.Table{Name: o.Table.Last(), Schema: r.schemaOf(o.Table, defaultCatalog), Columns: []*schema.Column{to}}
		stmts, err := r.plan(ctx, op, &schema.ModifyTable{T: t, Changes: []schema.Change{
			&schema.ModifyColumn{From: from, To: to, Change: changeKind(changes)},
		}})
		if err != nil {
			return nil, err
		}
		if len(stmts) == 0 {
			r.log.Warn("Column change has no SQL rendering", "column", o.Object().String(), "changes", o.Describe())
		}
		return stmts, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, op)
	}
}

// plan renders atlas changes with the dialect's planner
func (r *Renderer) plan(ctx context.Context, op diff.Operation, changes ...schema.Change) ([]Statement, error) {
	plan, err := r.planner.PlanChanges(ctx, string(op.Kind()), changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	stmts := make([]Statement, len(plan.Changes))
	for i, change := range plan.Changes {
		stmts[i] = Statement{
			SQL:         change.Cmd,
			Destructive: op.IsDestructive(),
			Comment:     change.Comment,
		}
	}
	return stmts, nil
}

// schemaOf maps a qualified object name to the atlas schema that qualifies
// it in SQL. An empty schema name leaves the object unqualified.
func (r *Renderer) schemaOf(name catalog.ObjectName, defaultCatalog string) *schema.Schema {
	switch r.dialect {
	case dialect.Postgres:
		if len(name) >= 3 {
			return &schema.Schema{Name: name[len(name)-2]}
		}
		return &schema.Schema{}
	case dialect.MySQL:
		if len(name) >= 2 && name[0] != defaultCatalog {
			return &schema.Schema{Name: name[0]}
		}
		return &schema.Schema{}
	case dialect.SQLite:
		return &schema.Schema{}
	default:
		panic(fmt.Sprintf("render: unknown dialect %d", int(r.dialect)))
	}
}

func (r *Renderer) tableName(t *schema.Table) string {
	if t.Schema != nil && t.Schema.Name != "" {
		return r.dialect.QuoteName(t.Schema.Name, t.Name)
	}
	return r.dialect.Quote(t.Name)
}

func changeKind(c diff.ColumnChanges) schema.ChangeKind {
	var kind schema.ChangeKind
	if c.Type {
		kind |= schema.ChangeType
	}
	if c.Nullability {
		kind |= schema.ChangeNull
	}
	if c.Default {
		kind |= schema.ChangeDefault
	}
	if c.Collation {
		kind |= schema.ChangeCollate
	}
	if c.Options {
		kind |= schema.ChangeAttr | schema.ChangeComment
	}
	return kind
}
