package introspect

import (
	"strings"

	"github.com/aita/migi/internal/catalog"
)

var mysqlNumericTypes = map[string]bool{
	"tinyint": true, "smallint": true, "mediumint": true, "int": true, "bigint": true,
	"decimal": true, "float": true, "double": true, "bit": true, "year": true,
}

// mysqlDefault turns column_default back into an expression. MySQL stores
// literal defaults unquoted and flags expressions with DEFAULT_GENERATED.
func mysqlDefault(r columnRow) string {
	v := r.Default.String
	switch {
	case strings.Contains(strings.ToUpper(r.Extra), "DEFAULT_GENERATED"):
		return v
	case mysqlNumericTypes[strings.ToLower(r.DataType)]:
		return v
	case strings.HasPrefix(v, "'"):
		return v
	default:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
}

func mysqlExtra(r columnRow) []catalog.ColumnOption {
	var opts []catalog.ColumnOption
	extra := strings.ToLower(r.Extra)

	if strings.Contains(extra, "auto_increment") {
		opts = append(opts, catalog.ColumnOption{Kind: catalog.OptionAutoIncrement})
	}
	if idx := strings.Index(extra, "on update "); idx >= 0 {
		expr := strings.TrimSpace(r.Extra[idx+len("on update "):])
		opts = append(opts, catalog.ColumnOption{Kind: catalog.OptionOnUpdate, Expr: expr})
	}
	for _, kind := range []string{"STORED", "VIRTUAL"} {
		if strings.Contains(extra, strings.ToLower(kind)+" generated") && r.GenerationExpr.String != "" {
			opts = append(opts, catalog.ColumnOption{
				Kind: catalog.OptionGenerated,
				Expr: "(" + r.GenerationExpr.String + ") " + kind,
			})
		}
	}
	return opts
}

// mysqlIndexes groups information_schema.statistics rows, one per indexed
// column, into indexes
func (i *Inspector) mysqlIndexes(rows []indexRow, tables map[tableKey]*catalog.Table) error {
	var (
		current *catalog.Index
		owner   *catalog.Table
		last    indexRow
	)
	flush := func() {
		if current != nil && owner != nil {
			owner.Indexes = append(owner.Indexes, *current)
		}
		current = nil
	}

	for _, r := range rows {
		if current == nil || r.Schema != last.Schema || r.Table != last.Table || r.Name != last.Name {
			flush()
			owner = tables[tableKey{r.Schema, r.Table}]
			current = &catalog.Index{
				Name:   r.Name,
				Unique: r.NonUnique.Valid && r.NonUnique.Int64 == 0,
				Method: i.normalizer.NormalizeIndexMethod(r.Method.String),
			}
		}
		switch {
		case r.Column.Valid && r.Column.String != "":
			current.Columns = append(current.Columns, r.Column.String)
		case r.Expression.Valid:
			current.Columns = append(current.Columns, "("+r.Expression.String+")")
		}
		last = r
	}
	flush()
	return nil
}
