package snapshot

import (
	"fmt"
	"strings"

	"github.com/aita/migi/internal/catalog"
)

// Markdown renders the model as reference documentation
func Markdown(db *catalog.Dbinfo) []byte {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Database Schema: %s\n\n", db.DefaultCatalog))
	b.WriteString(fmt.Sprintf("- **Dialect**: %s\n", db.Dialect))
	b.WriteString(fmt.Sprintf("- **Tables**: %d\n\n", db.TableCount()))

	for _, catalogName := range db.CatalogNames() {
		c := db.Catalogs[catalogName]
		for _, schemaName := range c.SchemaNames() {
			s := c.Schemas[schemaName]
			if len(s.Tables) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("## %s\n\n", sectionTitle(catalogName, schemaName)))
			for _, tableName := range s.TableNames() {
				writeTable(&b, s.Tables[tableName])
			}
		}
	}

	return []byte(b.String())
}

func sectionTitle(catalogName, schemaName string) string {
	if schemaName == "" {
		return catalogName
	}
	return catalogName + "." + schemaName
}

func writeTable(b *strings.Builder, table *catalog.Table) {
	b.WriteString(fmt.Sprintf("### %s\n\n", table.Name))
	if table.Comment != "" {
		b.WriteString(fmt.Sprintf("_%s_\n\n", table.Comment))
	}

	b.WriteString("| Name | Type | Nullable | Default |\n")
	b.WriteString("|------|------|----------|---------|\n")
	for _, col := range table.Columns {
		nullable := "NO"
		if col.Nullable() {
			nullable = "YES"
		}
		def, _ := col.Default()
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", col.Name, col.DataType, nullable, def))
	}
	b.WriteString("\n")

	if pk := table.PrimaryKey(); len(pk) > 0 {
		b.WriteString(fmt.Sprintf("- **Primary Key**: %s\n", strings.Join(pk, ", ")))
	}
	for _, c := range table.Constraints {
		switch c.Kind {
		case catalog.ConstraintForeignKey:
			b.WriteString(fmt.Sprintf("- **Foreign Key** %s: %s -> %s\n", c.Name, strings.Join(c.Columns, ", "), reference(c.References)))
		case catalog.ConstraintUnique:
			b.WriteString(fmt.Sprintf("- **Unique** %s: %s\n", c.Name, strings.Join(c.Columns, ", ")))
		case catalog.ConstraintCheck:
			b.WriteString(fmt.Sprintf("- **Check** %s: %s\n", c.Name, c.Expr))
		}
	}
	for _, idx := range table.Indexes {
		unique := ""
		if idx.Unique {
			unique = " (UNIQUE)"
		}
		b.WriteString(fmt.Sprintf("- **Index** %s%s: %s\n", idx.Name, unique, strings.Join(idx.Columns, ", ")))
	}
	b.WriteString("\n")
}

func reference(ref *catalog.Reference) string {
	if ref == nil {
		return ""
	}
	if len(ref.Columns) == 0 {
		return ref.Table.String()
	}
	return fmt.Sprintf("%s(%s)", ref.Table, strings.Join(ref.Columns, ", "))
}
