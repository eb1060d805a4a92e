package introspect

import (
	"fmt"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/inspector"
)

// postgresType rebuilds a declared type from information_schema.columns
func postgresType(r columnRow) string {
	switch r.DataType {
	case "USER-DEFINED":
		return r.ColumnType
	case "ARRAY":
		if len(r.ColumnType) > 1 && r.ColumnType[0] == '_' {
			return r.ColumnType[1:] + "[]"
		}
		return r.ColumnType + "[]"
	case "character varying", "character", "bit", "bit varying":
		if r.CharMaxLength.Valid {
			return fmt.Sprintf("%s(%d)", r.DataType, r.CharMaxLength.Int64)
		}
	case "numeric":
		if r.NumericPrecision.Valid && r.NumericScale.Valid {
			return fmt.Sprintf("numeric(%d,%d)", r.NumericPrecision.Int64, r.NumericScale.Int64)
		}
	}
	return r.DataType
}

// postgresIndexes replays pg_indexes definitions through the DDL inspector.
// Definitions the parser cannot read are skipped with a warning.
func (i *Inspector) postgresIndexes(rows []indexRow, db *catalog.Dbinfo, tables map[tableKey]*catalog.Table) error {
	ddl := inspector.New(db)
	for _, r := range rows {
		if _, ok := tables[tableKey{r.Schema, r.Table}]; !ok || !r.Definition.Valid {
			continue
		}
		if err := ddl.Inspect(r.Definition.String, "pg_indexes"); err != nil {
			i.log.Warn("Skipping index", "index", r.Name, "table", r.Schema+"."+r.Table, "error", err)
		}
	}

	for _, t := range tables {
		for k := range t.Indexes {
			t.Indexes[k].Method = i.normalizer.NormalizeIndexMethod(t.Indexes[k].Method)
			t.Indexes[k].Where = i.normalizer.NormalizeExpr(t.Indexes[k].Where)
		}
	}
	return nil
}
