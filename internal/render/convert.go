package render

import (
	"errors"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
)

// table converts a catalog table into its atlas form
func (r *Renderer) table(s *schema.Schema, src *catalog.Table) (*schema.Table, error) {
	t := &schema.Table{Name: src.Name, Schema: s}

	byName := make(map[string]*schema.Column, len(src.Columns))
	for _, c := range src.Columns {
		col, attrs, err := r.column(c)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
		t.Attrs = append(t.Attrs, attrs...)
		byName[c.Name] = col
	}

	if pk := src.PrimaryKey(); len(pk) > 0 {
		idx, err := r.index(t, byName, "", pk)
		if err != nil {
			return nil, err
		}
		idx.Unique = true
		t.PrimaryKey = idx
	}

	for _, c := range src.Columns {
		for _, opt := range c.Options {
			switch opt.Kind {
			case catalog.OptionUnique:
				name := opt.Name
				if name == "" {
					name = fmt.Sprintf("%s_%s_key", src.Name, c.Name)
				}
				idx, err := r.index(t, byName, name, []string{c.Name})
				if err != nil {
					return nil, err
				}
				idx.Unique = true
				t.Indexes = append(t.Indexes, idx)
			case catalog.OptionReferences:
				name := opt.Name
				if name == "" {
					name = fmt.Sprintf("%s_%s_fkey", src.Name, c.Name)
				}
				fk, err := r.foreignKey(t, byName, name, []string{c.Name}, opt.References)
				if err != nil {
					return nil, err
				}
				t.ForeignKeys = append(t.ForeignKeys, fk)
			}
		}
	}

	for _, con := range src.Constraints {
		switch con.Kind {
		case catalog.ConstraintPrimaryKey:
			// handled through Table.PrimaryKey
		case catalog.ConstraintUnique:
			name := con.Name
			if name == "" {
				name = fmt.Sprintf("%s_%s_key", src.Name, strings.Join(con.Columns, "_"))
			}
			idx, err := r.index(t, byName, name, con.Columns)
			if err != nil {
				return nil, err
			}
			idx.Unique = true
			t.Indexes = append(t.Indexes, idx)
		case catalog.ConstraintForeignKey:
			name := con.Name
			if name == "" {
				name = fmt.Sprintf("%s_%s_fkey", src.Name, strings.Join(con.Columns, "_"))
			}
			fk, err := r.foreignKey(t, byName, name, con.Columns, con.References)
			if err != nil {
				return nil, err
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		case catalog.ConstraintCheck:
			t.Attrs = append(t.Attrs, &schema.Check{Name: con.Name, Expr: con.Expr})
		}
	}

	for _, def := range src.Indexes {
		idx, err := r.index(t, byName, def.Name, def.Columns)
		if err != nil {
			return nil, err
		}
		idx.Unique = def.Unique
		idx.Attrs = append(idx.Attrs, r.indexAttrs(def)...)
		t.Indexes = append(t.Indexes, idx)
	}

	t.Attrs = append(t.Attrs, r.tableAttrs(src)...)
	return t, nil
}

func (r *Renderer) tableAttrs(src *catalog.Table) []schema.Attr {
	var attrs []schema.Attr
	if src.Comment != "" {
		attrs = append(attrs, &schema.Comment{Text: src.Comment})
	}
	if src.Charset != "" {
		attrs = append(attrs, &schema.Charset{V: src.Charset})
	}
	if src.Collation != "" {
		attrs = append(attrs, &schema.Collation{V: src.Collation})
	}

	switch r.dialect {
	case dialect.MySQL:
		if src.AutoIncrement != nil {
			attrs = append(attrs, &mysql.AutoIncrement{V: int64(*src.AutoIncrement)})
		}
	case dialect.SQLite:
		if src.WithoutRowID {
			attrs = append(attrs, &sqlite.WithoutRowID{})
		}
	}
	return attrs
}

func (r *Renderer) indexAttrs(src catalog.Index) []schema.Attr {
	var attrs []schema.Attr
	switch r.dialect {
	case dialect.Postgres:
		if src.Method != "" {
			attrs = append(attrs, &postgres.IndexType{T: strings.ToUpper(src.Method)})
		}
		if src.Where != "" {
			attrs = append(attrs, &postgres.IndexPredicate{P: src.Where})
		}
	case dialect.MySQL:
		if src.Method != "" {
			attrs = append(attrs, &mysql.IndexType{T: strings.ToUpper(src.Method)})
		}
	}
	return attrs
}

// dropTarget converts a table about to be dropped. The planners rebuild
// its CREATE TABLE as the reverse change, so it needs typed columns, but
// constraints they cannot express are left out.
func (r *Renderer) dropTarget(s *schema.Schema, name string, src *catalog.Table) (*schema.Table, error) {
	t, err := r.table(s, src)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		r.log.Debug("Dropping table without its constraints", "table", name, "reason", err)
		t = &schema.Table{Schema: s}
		for _, c := range src.Columns {
			col, _, err := r.column(c)
			if err != nil {
				return nil, err
			}
			t.Columns = append(t.Columns, col)
		}
	}
	t.Name = name
	return t, nil
}

// index builds an index over named columns. Names that are not columns
// are kept as expressions.
func (r *Renderer) index(t *schema.Table, byName map[string]*schema.Column, name string, columns []string) (*schema.Index, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: index %q on %s has no columns", ErrUnsupported, name, t.Name)
	}

	idx := &schema.Index{Name: name, Table: t}
	for i, c := range columns {
		part := &schema.IndexPart{SeqNo: i + 1}
		if col, ok := byName[c]; ok {
			part.C = col
		} else {
			part.X = &schema.RawExpr{X: c}
		}
		idx.Parts = append(idx.Parts, part)
	}
	return idx, nil
}

func (r *Renderer) foreignKey(t *schema.Table, byName map[string]*schema.Column, symbol string, columns []string, ref *catalog.Reference) (*schema.ForeignKey, error) {
	if ref == nil || len(ref.Columns) == 0 {
		return nil, fmt.Errorf("%w: foreign key %q on %s must name the referenced columns", ErrUnsupported, symbol, t.Name)
	}
	if len(ref.Columns) != len(columns) {
		return nil, fmt.Errorf("%w: foreign key %q on %s references %d columns with %d", ErrUnsupported, symbol, t.Name, len(ref.Columns), len(columns))
	}

	refTable := &schema.Table{Name: ref.Table.Last(), Schema: t.Schema}
	if len(ref.Table) > 1 {
		refTable.Schema = &schema.Schema{Name: ref.Table[len(ref.Table)-2]}
	}
	if refTable.Name == t.Name && refTable.Schema.Name == t.Schema.Name {
		refTable = t
	}

	fk := &schema.ForeignKey{
		Symbol:   symbol,
		Table:    t,
		RefTable: refTable,
		OnDelete: schema.ReferenceOption(ref.OnDelete),
		OnUpdate: schema.ReferenceOption(ref.OnUpdate),
	}
	for _, c := range columns {
		col, ok := byName[c]
		if !ok {
			return nil, fmt.Errorf("%w: foreign key %q on %s names unknown column %q", ErrUnsupported, symbol, t.Name, c)
		}
		fk.Columns = append(fk.Columns, col)
	}
	for _, c := range ref.Columns {
		fk.RefColumns = append(fk.RefColumns, &schema.Column{Name: c})
	}
	return fk, nil
}

// column converts a column. Inline CHECK options are returned as table
// attributes.
func (r *Renderer) column(c catalog.Column) (*schema.Column, []schema.Attr, error) {
	typ, err := r.parseType(c.DataType)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: column %s: %v", ErrUnsupported, c.Name, err)
	}

	col := &schema.Column{
		Name: c.Name,
		Type: &schema.ColumnType{Type: typ, Raw: c.DataType, Null: c.Nullable()},
	}
	if def, ok := c.Default(); ok {
		col.Default = &schema.RawExpr{X: def}
	}
	if c.Collation != "" {
		col.Attrs = append(col.Attrs, &schema.Collation{V: c.Collation})
	}

	var tableAttrs []schema.Attr
	for _, opt := range c.Options {
		switch opt.Kind {
		case catalog.OptionComment:
			col.Attrs = append(col.Attrs, &schema.Comment{Text: opt.Expr})
		case catalog.OptionCharset:
			col.Attrs = append(col.Attrs, &schema.Charset{V: opt.Expr})
		case catalog.OptionCheck:
			tableAttrs = append(tableAttrs, &schema.Check{Name: opt.Name, Expr: opt.Expr})
		case catalog.OptionGenerated:
			expr, kind := splitGenerated(opt.Expr)
			col.Attrs = append(col.Attrs, &schema.GeneratedExpr{Expr: expr, Type: kind})
		case catalog.OptionIdentity:
			if r.dialect == dialect.Postgres {
				col.Attrs = append(col.Attrs, &postgres.Identity{
					Generation: opt.Expr,
					Sequence:   &postgres.Sequence{Start: 1, Increment: 1},
				})
			}
		case catalog.OptionAutoIncrement:
			switch r.dialect {
			case dialect.MySQL:
				col.Attrs = append(col.Attrs, &mysql.AutoIncrement{})
			case dialect.SQLite:
				col.Attrs = append(col.Attrs, &sqlite.AutoIncrement{})
			}
		case catalog.OptionOnUpdate:
			if r.dialect == dialect.MySQL {
				col.Attrs = append(col.Attrs, &mysql.OnUpdate{A: opt.Expr})
			}
		}
	}
	return col, tableAttrs, nil
}

// splitGenerated separates a trailing STORED or VIRTUAL from a generated
// column expression
func splitGenerated(expr string) (string, string) {
	for _, kind := range []string{"STORED", "VIRTUAL"} {
		if strings.HasSuffix(strings.ToUpper(expr), " "+kind) {
			return strings.TrimSpace(expr[:len(expr)-len(kind)]), kind
		}
	}
	return expr, ""
}

// parseType converts a raw type into the dialect's atlas type. Types with
// quoted members (ENUM, SET) keep their case.
func (r *Renderer) parseType(raw string) (schema.Type, error) {
	typ := strings.TrimSpace(raw)
	if !strings.ContainsAny(typ, `'"`) {
		typ = strings.ToLower(typ)
	}

	switch r.dialect {
	case dialect.Postgres:
		return postgres.ParseType(typ)
	case dialect.MySQL:
		return mysql.ParseType(mysqlSynonym(typ))
	case dialect.SQLite:
		if typ == "" {
			// a column without a declared type has BLOB affinity
			typ = "blob"
		}
		return sqlite.ParseType(typ)
	default:
		panic(fmt.Sprintf("render: unknown dialect %d", int(r.dialect)))
	}
}

// mysqlSynonyms maps type names MySQL accepts in DDL to the names it
// reports, which are the only ones the planner formats
var mysqlSynonyms = map[string]string{
	"integer":           "int",
	"int1":              "tinyint",
	"int2":              "smallint",
	"int3":              "mediumint",
	"int4":              "int",
	"int8":              "bigint",
	"middleint":         "mediumint",
	"dec":               "decimal",
	"fixed":             "decimal",
	"double precision":  "double",
	"float4":            "float",
	"float8":            "double",
	"character":         "char",
	"character varying": "varchar",
}

func mysqlSynonym(typ string) string {
	for from, to := range mysqlSynonyms {
		if !strings.HasPrefix(typ, from) {
			continue
		}
		rest := typ[len(from):]
		if rest == "" || rest[0] == '(' || rest[0] == ' ' {
			// "character varying" must not match as "character"
			if from == "character" && strings.HasPrefix(rest, " varying") {
				continue
			}
			return to + rest
		}
	}
	return typ
}
