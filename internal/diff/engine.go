package diff

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/logger"
)

// Generator compares two catalog models and produces the ordered
// operations that transform the previous one into the current one
type Generator struct {
	previous *catalog.Dbinfo
	current  *catalog.Dbinfo
	ops      []Operation
	log      logger.Logger
}

// NewGenerator creates a new diff generator
func NewGenerator(previous, current *catalog.Dbinfo) *Generator {
	return &Generator{
		previous: previous,
		current:  current,
		log:      logger.Diff(),
	}
}

// Generate diffs previous against current
func Generate(previous, current *catalog.Dbinfo) (*Migration, error) {
	return NewGenerator(previous, current).Generate()
}

// Generate performs the comparison. Any error aborts the whole run and no
// partial migration is returned. The inputs are never modified.
func (g *Generator) Generate() (*Migration, error) {
	if g.previous == nil || g.current == nil {
		return nil, fmt.Errorf("diff: both previous and current models are required")
	}
	if g.previous.Dialect != g.current.Dialect {
		return nil, &Error{
			Op:  "database",
			Err: fmt.Errorf("%w: %s -> %s", ErrDialectMismatch, g.previous.Dialect, g.current.Dialect),
		}
	}

	g.ops = nil
	if err := g.compareCatalogs(); err != nil {
		return nil, err
	}

	m := &Migration{
		Dialect:        g.current.Dialect,
		DefaultCatalog: g.current.DefaultCatalog,
		Operations:     g.ops,
	}
	g.log.Debug("diff complete", "operations", len(m.Operations), "summary", m.Summary())

	return m, nil
}

func (g *Generator) emit(op Operation) {
	g.ops = append(g.ops, op)
}

// compareCatalogs handles the catalog level: drops, then creates, then
// catalogs present on both sides that differ anywhere below
func (g *Generator) compareCatalogs() error {
	prev, cur := g.previous.Catalogs, g.current.Catalogs

	dropped, created, common := partition(prev, cur)

	g.log.Debug("comparing catalogs", "dropped", len(dropped), "created", len(created), "common", len(common))

	for _, name := range dropped {
		c := prev[name]
		for _, schemaName := range c.SchemaNames() {
			g.dropTables(catalog.ObjectName{name, schemaName}, c.Schemas[schemaName])
		}
		for _, schemaName := range c.SchemaNames() {
			g.emit(&DropSchema{Name: catalog.ObjectName{name, schemaName}})
		}
		g.emit(&DropDatabase{Name: name})
	}

	for _, name := range created {
		c := cur[name]
		g.emit(&CreateDatabase{Name: name})
		for _, schemaName := range c.SchemaNames() {
			g.createSchema(catalog.ObjectName{name, schemaName}, c.Schemas[schemaName])
		}
	}

	for _, name := range common {
		if prev[name].Equal(cur[name]) {
			continue
		}
		if err := g.compareSchemas(name, prev[name], cur[name]); err != nil {
			return err
		}
	}

	return nil
}

func (g *Generator) compareSchemas(catalogName string, prev, cur *catalog.Catalog) error {
	dropped, created, common := partition(prev.Schemas, cur.Schemas)

	for _, name := range dropped {
		qualified := catalog.ObjectName{catalogName, name}
		g.dropTables(qualified, prev.Schemas[name])
		g.emit(&DropSchema{Name: qualified})
	}

	for _, name := range created {
		g.createSchema(catalog.ObjectName{catalogName, name}, cur.Schemas[name])
	}

	for _, name := range common {
		if prev.Schemas[name].Equal(cur.Schemas[name]) {
			continue
		}
		if err := g.compareTables(catalog.ObjectName{catalogName, name}, prev.Schemas[name], cur.Schemas[name]); err != nil {
			return err
		}
	}

	return nil
}

func (g *Generator) compareTables(schemaName catalog.ObjectName, prev, cur *catalog.Schema) error {
	dropped, created, common := partition(prev.Tables, cur.Tables)

	for _, name := range dropped {
		g.emit(&DropTable{Name: qualify(schemaName, name), Table: prev.Tables[name].Clone()})
	}

	for _, name := range created {
		g.emit(&CreateTable{Name: qualify(schemaName, name), Table: cur.Tables[name].Clone()})
	}

	for _, name := range common {
		if prev.Tables[name].Equal(cur.Tables[name]) {
			continue
		}
		if err := g.compareColumns(qualify(schemaName, name), prev.Tables[name], cur.Tables[name]); err != nil {
			return err
		}
	}

	return nil
}

// compareColumns aligns the column sequences and emits column operations
// in alignment order. Columns may only be appended after the last kept
// column.
func (g *Generator) compareColumns(tableName catalog.ObjectName, prev, cur *catalog.Table) error {
	items := Align(prev.ColumnNames(), cur.ColumnNames())

	if !appendOnly(items) {
		return unsupported("table", tableName, "cannot add columns in the middle of a table")
	}

	for _, item := range items {
		switch item.Kind {
		case Removed:
			g.emit(&DropColumn{Table: tableName.Clone(), Column: prev.Columns[item.Prev].Clone()})
		case Kept:
			g.emit(&AlterColumn{
				Table:    tableName.Clone(),
				Previous: prev.Columns[item.Prev].Clone(),
				Current:  cur.Columns[item.Cur].Clone(),
			})
		case Added:
			g.emit(&AddColumn{Table: tableName.Clone(), Column: cur.Columns[item.Cur].Clone()})
		}
	}

	return nil
}

func (g *Generator) createSchema(name catalog.ObjectName, s *catalog.Schema) {
	g.emit(&CreateSchema{Name: name.Clone()})
	for _, tableName := range s.TableNames() {
		g.emit(&CreateTable{Name: qualify(name, tableName), Table: s.Tables[tableName].Clone()})
	}
}

func (g *Generator) dropTables(schemaName catalog.ObjectName, s *catalog.Schema) {
	for _, tableName := range s.TableNames() {
		g.emit(&DropTable{Name: qualify(schemaName, tableName), Table: s.Tables[tableName].Clone()})
	}
}

func qualify(parent catalog.ObjectName, name string) catalog.ObjectName {
	return append(parent.Clone(), name)
}

// partition splits the keys of two maps into keys only in prev, keys only
// in cur and keys in both, each in sorted order
func partition[V any](prev, cur map[string]V) (dropped, created, common []string) {
	for _, k := range slices.Sorted(maps.Keys(prev)) {
		if _, ok := cur[k]; ok {
			common = append(common, k)
		} else {
			dropped = append(dropped, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(cur)) {
		if _, ok := prev[k]; !ok {
			created = append(created, k)
		}
	}
	return dropped, created, common
}
