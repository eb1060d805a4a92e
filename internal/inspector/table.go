package inspector

import (
	"slices"
	"strconv"
	"strings"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/ddl"
	"github.com/aita/migi/internal/dialect"
)

// clauseDialects lists the dialects in which a trailing CREATE TABLE clause
// has a model counterpart. Clauses missing here are always rejected.
var clauseDialects = map[string][]dialect.Dialect{
	"WITH":          {dialect.Postgres},
	"ON COMMIT":     {dialect.Postgres},
	"PARTITION BY":  {dialect.Postgres, dialect.MySQL},
	"OPTION":        {dialect.MySQL},
	"WITHOUT ROWID": {dialect.SQLite},
	"STRICT":        {dialect.SQLite},
}

func (i *Inspector) createTable(s *ddl.CreateTable) error {
	for _, m := range s.Modifiers {
		switch m.Keyword {
		case "IF NOT EXISTS", "OR REPLACE":
		default:
			return i.unsupported(s.At, "CREATE %s TABLE is not supported", m.Keyword)
		}
	}
	for _, c := range s.Clauses {
		switch c.Keyword {
		case "AS":
			return i.unsupported(s.At, "CREATE TABLE AS is not supported")
		case "OPTION":
			if i.dialect != dialect.MySQL {
				return i.unsupported(c.Pos, "CREATE TABLE ... %s is not supported in %s", c.Key, i.dialect)
			}
		default:
			if !slices.Contains(clauseDialects[c.Keyword], i.dialect) {
				if len(clauseDialects[c.Keyword]) == 0 {
					return i.unsupported(c.Pos, "CREATE TABLE ... %s is not supported", c.Keyword)
				}
				return i.unsupported(c.Pos, "CREATE TABLE ... %s is not supported in %s", c.Keyword, i.dialect)
			}
		}
	}
	if len(s.Unsupported) > 0 {
		u := s.Unsupported[0]
		return i.unsupported(u.Pos, "CREATE TABLE ... %s is not supported", u.Keyword)
	}

	name, err := i.tableName(s.Name)
	if err != nil {
		return err
	}

	table := &catalog.Table{Name: name.Table}

	for _, def := range s.Columns {
		col := i.column(def)
		if _, exists := table.Column(col.Name); exists {
			return i.fail(def.Name.Pos, ErrDuplicate, "duplicate column %q in table %s", col.Name, name)
		}
		table.Columns = append(table.Columns, col)
	}
	for _, c := range s.Constraints {
		table.Constraints = append(table.Constraints, i.constraint(c))
	}
	for _, idx := range s.Indexes {
		table.Indexes = append(table.Indexes, i.index(idx))
	}

	if err := i.tableClauses(table, s.Clauses); err != nil {
		return err
	}

	if existing, err := i.db.GetTable(name); err == nil && !s.HasModifier("OR REPLACE") {
		if s.HasModifier("IF NOT EXISTS") {
			i.log.Debug("Table already exists", "table", name.String())
			return nil
		}
		return i.fail(s.At, ErrDuplicate, "table %s already exists", existing.Name)
	}

	if err := i.db.AddTable(name, table); err != nil {
		return i.wrap(s.At, err)
	}

	i.log.Debug("Added table", "table", name.String(), "columns", len(table.Columns))
	return nil
}

func (i *Inspector) tableClauses(table *catalog.Table, clauses []ddl.Clause) error {
	for _, c := range clauses {
		switch c.Keyword {
		case "WITH":
			table.WithOptions = append(table.WithOptions, catalog.Option{Key: c.Key, Value: c.Text})
		case "ON COMMIT":
			table.OnCommit = c.Text
		case "PARTITION BY":
			table.PartitionBy = c.Text
		case "WITHOUT ROWID":
			table.WithoutRowID = true
		case "STRICT":
			table.Strict = true
		case "OPTION":
			if err := i.tableOption(table, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *Inspector) tableOption(table *catalog.Table, c ddl.Clause) error {
	switch c.Key {
	case "ENGINE":
		table.Engine = c.Text
	case "CHARSET":
		table.Charset = c.Text
	case "COLLATE":
		table.Collation = c.Text
	case "COMMENT":
		table.Comment = c.Text
	case "AUTO_INCREMENT":
		n, err := strconv.ParseUint(c.Text, 10, 64)
		if err != nil {
			return i.fail(c.Pos, err, "invalid AUTO_INCREMENT value %q", c.Text)
		}
		table.AutoIncrement = &n
	default:
		table.Options = append(table.Options, catalog.Option{Key: c.Key, Value: c.Text})
	}
	return nil
}

func (i *Inspector) alterTable(s *ddl.AlterTable) error {
	table, err := i.lookupTable(s.Table)
	if err != nil {
		return err
	}

	for _, action := range s.Actions {
		switch a := action.(type) {
		case *ddl.AddColumnAction:
			if err := i.addColumn(table, a); err != nil {
				return err
			}

		case *ddl.DropColumnAction:
			name := i.fold(a.Column)
			idx := slices.IndexFunc(table.Columns, func(c catalog.Column) bool { return c.Name == name })
			if idx < 0 {
				if a.IfExists {
					continue
				}
				return i.fail(a.Pos, catalog.ErrNotFound, "column %q not found in table %s", name, table.Name)
			}
			table.Columns = slices.Delete(table.Columns, idx, idx+1)

		case *ddl.AddConstraintAction:
			if a.Index != nil {
				table.Indexes = append(table.Indexes, i.index(*a.Index))
			} else {
				table.Constraints = append(table.Constraints, i.constraint(a.Constraint))
			}

		case *ddl.DropConstraintAction:
			name := i.fold(a.Name)
			before := len(table.Constraints) + len(table.Indexes)
			table.Constraints = slices.DeleteFunc(table.Constraints, func(c catalog.Constraint) bool { return c.Name == name })
			table.Indexes = slices.DeleteFunc(table.Indexes, func(idx catalog.Index) bool { return idx.Name == name })
			if before == len(table.Constraints)+len(table.Indexes) && !a.IfExists {
				return i.fail(a.Pos, catalog.ErrNotFound, "constraint %q not found in table %s", name, table.Name)
			}

		case *ddl.OtherAction:
			return i.unsupported(a.Clause.Pos, "ALTER TABLE ... %s is not supported", a.Clause.Keyword)

		default:
			return i.unsupported(s.At, "ALTER TABLE action %T is not supported", action)
		}
	}
	return nil
}

func (i *Inspector) addColumn(table *catalog.Table, a *ddl.AddColumnAction) error {
	col := i.column(a.Column)
	if _, exists := table.Column(col.Name); exists {
		if a.IfNotExists {
			return nil
		}
		return i.fail(a.Pos, ErrDuplicate, "column %q already exists in table %s", col.Name, table.Name)
	}

	at := len(table.Columns)
	switch {
	case a.First:
		at = 0
	case a.After != nil:
		after := i.fold(*a.After)
		idx := slices.IndexFunc(table.Columns, func(c catalog.Column) bool { return c.Name == after })
		if idx < 0 {
			return i.fail(a.After.Pos, catalog.ErrNotFound, "column %q not found in table %s", after, table.Name)
		}
		at = idx + 1
	}

	table.Columns = slices.Insert(table.Columns, at, col)
	return nil
}

func (i *Inspector) column(def ddl.ColumnDef) catalog.Column {
	col := catalog.Column{
		Name:      i.fold(def.Name),
		DataType:  def.Type,
		Collation: def.Collation,
	}
	for _, opt := range def.Options {
		o := catalog.ColumnOption{
			Kind:       opt.Kind,
			Expr:       opt.Expr,
			References: i.reference(opt.Reference),
		}
		if opt.Name != nil {
			o.Name = i.fold(*opt.Name)
		}
		col.Options = append(col.Options, o)
	}
	return col
}

func (i *Inspector) constraint(c ddl.TableConstraint) catalog.Constraint {
	out := catalog.Constraint{
		Kind:       c.Kind,
		Columns:    i.idents(c.Columns),
		Expr:       c.Expr,
		References: i.reference(c.Reference),
	}
	if c.Name != nil {
		out.Name = i.fold(*c.Name)
	}
	return out
}

func (i *Inspector) index(idx ddl.IndexDef) catalog.Index {
	out := catalog.Index{
		Columns: i.idents(idx.Columns),
		Unique:  idx.Unique,
		Method:  idx.Method,
		Where:   idx.Where,
	}
	if idx.Name != nil {
		out.Name = i.fold(*idx.Name)
	}
	return out
}

func (i *Inspector) reference(ref *ddl.Reference) *catalog.Reference {
	if ref == nil {
		return nil
	}
	table := make(catalog.ObjectName, len(ref.Table))
	for idx, id := range ref.Table {
		table[idx] = i.fold(id)
	}
	return &catalog.Reference{
		Table:    table,
		Columns:  i.idents(ref.Columns),
		OnDelete: strings.ToUpper(ref.OnDelete),
		OnUpdate: strings.ToUpper(ref.OnUpdate),
	}
}

func (i *Inspector) idents(ids []ddl.Ident) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for idx, id := range ids {
		out[idx] = i.fold(id)
	}
	return out
}
