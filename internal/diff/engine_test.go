package diff

import (
	"errors"
	"strings"
	"testing"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
)

func newDB() *catalog.Dbinfo {
	return catalog.New(catalog.Options{Dialect: dialect.Postgres, Database: "db", DefaultSchema: "public"})
}

func columns(names ...string) []catalog.Column {
	cols := make([]catalog.Column, len(names))
	for i, n := range names {
		cols[i] = catalog.Column{Name: n, DataType: "integer"}
	}
	return cols
}

func addTable(t *testing.T, db *catalog.Dbinfo, name catalog.TableName, cols ...string) {
	t.Helper()
	if err := db.AddTable(name, &catalog.Table{Name: name.Table, Columns: columns(cols...)}); err != nil {
		t.Fatalf("AddTable(%s) failed: %v", name, err)
	}
}

func kinds(ops []Operation) []OperationKind {
	out := make([]OperationKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind()
	}
	return out
}

func objects(ops []Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Object().String()
	}
	return out
}

func assertKinds(t *testing.T, ops []Operation, want ...OperationKind) {
	t.Helper()
	got := kinds(ops)
	if len(got) != len(want) {
		t.Fatalf("Expected %d operations %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Operation %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func assertObjects(t *testing.T, ops []Operation, want ...string) {
	t.Helper()
	got := objects(ops)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Expected objects %v, got %v", want, got)
	}
}

func TestGenerate_Identity(t *testing.T) {
	db := newDB()
	addTable(t, db, catalog.TableName{Table: "users"}, "id", "email")
	if err := db.AddSchema("", catalog.NewSchema("reporting")); err != nil {
		t.Fatal(err)
	}
	addTable(t, db, catalog.TableName{Schema: "reporting", Table: "events"}, "id")
	db.AddCatalog("other", catalog.NewCatalog("other", "public"))

	m, err := Generate(db, db.Clone())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !m.IsEmpty() {
		t.Errorf("Expected no operations, got %v", kinds(m.Operations))
	}
	if m.Summary() != "No changes detected" {
		t.Errorf("Unexpected summary: %s", m.Summary())
	}
}

func TestGenerate_CreateDropSymmetry(t *testing.T) {
	empty := newDB()
	full := newDB()
	addTable(t, full, catalog.TableName{Table: "users"}, "id")

	m, err := Generate(empty, full)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertKinds(t, m.Operations, KindCreateTable)
	assertObjects(t, m.Operations, "db.public.users")

	m, err = Generate(full, empty)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertKinds(t, m.Operations, KindDropTable)
	assertObjects(t, m.Operations, "db.public.users")

	drop := m.Operations[0].(*DropTable)
	if len(drop.Table.Columns) != 1 || drop.Table.Columns[0].Name != "id" {
		t.Errorf("Expected DropTable to carry the previous definition, got %+v", drop.Table)
	}
}

func TestGenerate_AppendColumn(t *testing.T) {
	prev, cur := newDB(), newDB()
	addTable(t, prev, catalog.TableName{Table: "t"}, "a", "b", "c")
	addTable(t, cur, catalog.TableName{Table: "t"}, "a", "b", "c", "d")

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	assertKinds(t, m.Operations, KindAlterColumn, KindAlterColumn, KindAlterColumn, KindAddColumn)
	assertObjects(t, m.Operations, "db.public.t.a", "db.public.t.b", "db.public.t.c", "db.public.t.d")

	for _, op := range m.Operations[:3] {
		if !op.(*AlterColumn).IsNoop() {
			t.Errorf("Expected no-op alteration for %s", op.Object())
		}
	}
	if len(m.Effective()) != 1 {
		t.Errorf("Expected 1 effective operation, got %d", len(m.Effective()))
	}
	if m.Summary() != "1 new column(s)" {
		t.Errorf("Unexpected summary: %s", m.Summary())
	}
}

func TestGenerate_MidTableInsertRejected(t *testing.T) {
	tests := []struct {
		name string
		cur  []string
	}{
		{name: "middle", cur: []string{"a", "x", "b"}},
		{name: "front", cur: []string{"x", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, cur := newDB(), newDB()
			addTable(t, prev, catalog.TableName{Table: "t"}, "a", "b")
			addTable(t, cur, catalog.TableName{Table: "t"}, tt.cur...)

			m, err := Generate(prev, cur)
			if err == nil {
				t.Fatalf("Expected error, got %v", kinds(m.Operations))
			}
			if m != nil {
				t.Error("Expected no partial migration")
			}
			if !errors.Is(err, ErrUnsupportedDiff) {
				t.Errorf("Expected ErrUnsupportedDiff, got %v", err)
			}

			var derr *Error
			if !errors.As(err, &derr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if derr.Object.String() != "db.public.t" {
				t.Errorf("Expected object db.public.t, got %s", derr.Object)
			}
			if !strings.Contains(err.Error(), "cannot add columns in the middle of a table") {
				t.Errorf("Unexpected message: %v", err)
			}
		})
	}
}

func TestGenerate_RenameIsDropPlusAdd(t *testing.T) {
	prev, cur := newDB(), newDB()
	addTable(t, prev, catalog.TableName{Table: "t"}, "a", "b")
	addTable(t, cur, catalog.TableName{Table: "t"}, "a", "c")

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	assertKinds(t, m.Operations, KindAlterColumn, KindDropColumn, KindAddColumn)
	assertObjects(t, m.Operations, "db.public.t.a", "db.public.t.b", "db.public.t.c")
}

func TestGenerate_NewSchema(t *testing.T) {
	prev, cur := newDB(), newDB()
	if err := cur.AddSchema("db", catalog.NewSchema("reporting")); err != nil {
		t.Fatal(err)
	}
	addTable(t, cur, catalog.TableName{Catalog: "db", Schema: "reporting", Table: "events"}, "id")

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	assertKinds(t, m.Operations, KindCreateSchema, KindCreateTable)
	assertObjects(t, m.Operations, "db.reporting", "db.reporting.events")

	m, err = Generate(cur, prev)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertKinds(t, m.Operations, KindDropTable, KindDropSchema)
}

func TestGenerate_ChangeUnderUnchangedDefaultSchema(t *testing.T) {
	prev, cur := newDB(), newDB()
	addTable(t, prev, catalog.TableName{Table: "t"}, "a")
	if err := cur.AddTable(catalog.TableName{Table: "t"}, &catalog.Table{
		Name:    "t",
		Columns: []catalog.Column{{Name: "a", DataType: "bigint"}},
	}); err != nil {
		t.Fatal(err)
	}

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	assertKinds(t, m.Operations, KindAlterColumn)
	alter := m.Operations[0].(*AlterColumn)
	if alter.IsNoop() || !alter.Changes().Type {
		t.Errorf("Expected a type change, got %+v", alter.Changes())
	}
	if alter.IsDestructive() {
		t.Error("integer -> bigint should be a safe widening")
	}
}

func TestGenerate_Catalogs(t *testing.T) {
	prev, cur := newDB(), newDB()

	analytics := catalog.NewCatalog("analytics", "public")
	analytics.Schemas["staging"] = catalog.NewSchema("staging")
	cur.AddCatalog("analytics", analytics)
	addTable(t, cur, catalog.TableName{Catalog: "analytics", Table: "hits"}, "id")
	addTable(t, cur, catalog.TableName{Catalog: "analytics", Schema: "staging", Table: "raw"}, "id")

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertKinds(t, m.Operations, KindCreateDatabase, KindCreateSchema, KindCreateTable, KindCreateSchema, KindCreateTable)
	assertObjects(t, m.Operations, "analytics", "analytics.public", "analytics.public.hits", "analytics.staging", "analytics.staging.raw")

	m, err = Generate(cur, prev)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertKinds(t, m.Operations, KindDropTable, KindDropTable, KindDropSchema, KindDropSchema, KindDropDatabase)
	assertObjects(t, m.Operations, "analytics.public.hits", "analytics.staging.raw", "analytics.public", "analytics.staging", "analytics")
	if !m.HasDestructiveChanges() {
		t.Error("Expected destructive changes")
	}
}

func TestGenerate_OrderingDropsBeforeCreates(t *testing.T) {
	prev, cur := newDB(), newDB()
	addTable(t, prev, catalog.TableName{Table: "old"}, "id")
	addTable(t, prev, catalog.TableName{Table: "kept"}, "id")
	addTable(t, cur, catalog.TableName{Table: "kept"}, "id", "name")
	addTable(t, cur, catalog.TableName{Table: "new"}, "id")

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertKinds(t, m.Operations, KindDropTable, KindCreateTable, KindAlterColumn, KindAddColumn)
	assertObjects(t, m.Operations, "db.public.old", "db.public.new", "db.public.kept.id", "db.public.kept.name")
}

func TestGenerate_ErrorAbortsRun(t *testing.T) {
	prev, cur := newDB(), newDB()
	addTable(t, prev, catalog.TableName{Table: "a"}, "x")
	addTable(t, prev, catalog.TableName{Table: "b"}, "x", "y")
	addTable(t, cur, catalog.TableName{Table: "a"}, "x", "z")
	addTable(t, cur, catalog.TableName{Table: "b"}, "x", "new", "y")

	m, err := Generate(prev, cur)
	if err == nil || m != nil {
		t.Fatal("Expected the whole run to fail")
	}
	if !strings.Contains(err.Error(), "db.public.b") {
		t.Errorf("Expected error to name db.public.b, got %v", err)
	}
}

func TestGenerate_DialectMismatch(t *testing.T) {
	prev := newDB()
	cur := catalog.New(catalog.Options{Dialect: dialect.MySQL, Database: "db"})

	_, err := Generate(prev, cur)
	if !errors.Is(err, ErrDialectMismatch) {
		t.Errorf("Expected ErrDialectMismatch, got %v", err)
	}
}

func TestGenerate_InputsNotModified(t *testing.T) {
	prev, cur := newDB(), newDB()
	addTable(t, cur, catalog.TableName{Table: "users"}, "id")
	snapshot := cur.Clone()

	m, err := Generate(prev, cur)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	create := m.Operations[0].(*CreateTable)
	create.Table.Columns[0].Name = "mutated"
	create.Name[0] = "mutated"

	if !cur.Equal(snapshot) {
		t.Error("Expected operation payloads to be independent copies")
	}
}

func TestMigration_Summary(t *testing.T) {
	m := &Migration{Operations: []Operation{
		&CreateTable{Name: catalog.ObjectName{"db", "public", "a"}, Table: &catalog.Table{Name: "a"}},
		&CreateTable{Name: catalog.ObjectName{"db", "public", "b"}, Table: &catalog.Table{Name: "b"}},
		&DropColumn{Table: catalog.ObjectName{"db", "public", "c"}, Column: catalog.Column{Name: "x"}},
	}}

	want := "2 new table(s), 1 dropped column(s) [WARNING: Contains unsafe changes]"
	if got := m.Summary(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	destructive := m.Destructive()
	if len(destructive) != 1 || destructive[0] != "Drop column db.public.c.x" {
		t.Errorf("Unexpected destructive list: %v", destructive)
	}
}
