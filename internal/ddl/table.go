package ddl

import (
	"strings"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
)

func (p *parser) createTable(at Pos, mods []Clause) (Statement, error) {
	p.next()
	stmt := &CreateTable{At: at, Modifiers: mods}

	if tok := p.peek(); p.accept("IF", "NOT", "EXISTS") {
		stmt.Modifiers = append(stmt.Modifiers, Clause{Keyword: "IF NOT EXISTS", Pos: tok.Pos})
	}

	name, err := p.name()
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if p.peek().IsPunct("(") && !p.peekN(1).Is("LIKE") {
		p.next()
		if err := p.tableBody(stmt); err != nil {
			return nil, err
		}
	}

	if err := p.tableClauses(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) tableBody(stmt *CreateTable) error {
	for {
		tok := p.peek()
		switch {
		case p.atConstraintStart():
			con, idx, err := p.tableConstraint()
			if err != nil {
				return err
			}
			if idx != nil {
				stmt.Indexes = append(stmt.Indexes, *idx)
			} else {
				stmt.Constraints = append(stmt.Constraints, con)
			}
		case p.dialect == dialect.MySQL && p.atIndexStart():
			idx, err := p.inlineIndex()
			if err != nil {
				return err
			}
			stmt.Indexes = append(stmt.Indexes, idx)
		case tok.Is("EXCLUDE") && (p.peekN(1).IsPunct("(") || p.peekN(1).Is("USING")),
			tok.Is("PERIOD") && p.peekN(1).Is("FOR"):
			p.next()
			stmt.Unsupported = append(stmt.Unsupported, Clause{
				Keyword: strings.ToUpper(tok.Text),
				Text:    p.exprUntil(nil),
				Pos:     tok.Pos,
			})
		default:
			col, err := p.columnDef()
			if err != nil {
				return err
			}
			stmt.Columns = append(stmt.Columns, col)
		}

		if p.acceptPunct(",") {
			continue
		}
		_, err := p.expectPunct(")")
		return err
	}
}

func (p *parser) atConstraintStart() bool {
	tok := p.peek()
	switch {
	case tok.Is("CONSTRAINT"), tok.Is("CHECK") && p.peekN(1).IsPunct("("):
		return true
	case tok.Is("PRIMARY") && p.peekN(1).Is("KEY"), tok.Is("FOREIGN") && p.peekN(1).Is("KEY"):
		return true
	case tok.Is("UNIQUE"):
		next := p.peekN(1)
		return next.IsPunct("(") || next.Is("KEY") || next.Is("INDEX") || next.Is("NULLS") ||
			(p.dialect == dialect.MySQL && (next.Kind == Word || next.Kind == QuotedIdent))
	}
	return false
}

func (p *parser) atIndexStart() bool {
	tok := p.peek()
	switch {
	case tok.Is("KEY"), tok.Is("INDEX"):
		return true
	case tok.Is("FULLTEXT"), tok.Is("SPATIAL"):
		return true
	}
	return false
}

// inlineIndex parses a MySQL {KEY|INDEX|FULLTEXT|SPATIAL} definition
func (p *parser) inlineIndex() (IndexDef, error) {
	tok := p.next()
	idx := IndexDef{Pos: tok.Pos}
	if tok.Is("FULLTEXT") || tok.Is("SPATIAL") {
		idx.Method = strings.ToLower(tok.Text)
		p.acceptAny("KEY", "INDEX")
	}

	if !p.peek().IsPunct("(") && !p.peek().Is("USING") {
		id, err := p.ident()
		if err != nil {
			return idx, err
		}
		idx.Name = &id
	}
	if p.accept("USING") {
		idx.Method = strings.ToLower(p.next().Text)
	}

	cols, err := p.indexElements()
	if err != nil {
		return idx, err
	}
	idx.Columns = cols

	p.skipIndexOptions()
	return idx, nil
}

// skipIndexOptions drops everything up to the end of the current element
func (p *parser) skipIndexOptions() {
	for !p.atStatementEnd() && !p.peek().IsPunct(",") && !p.peek().IsPunct(")") {
		_ = p.skipBalanced()
	}
}

// tableConstraint parses a table constraint. MySQL UNIQUE KEY definitions
// with a name are constraints as well; the returned index is set only for
// ADD INDEX style definitions in ALTER TABLE.
func (p *parser) tableConstraint() (TableConstraint, *IndexDef, error) {
	con := TableConstraint{Pos: p.peek().Pos}

	if p.accept("CONSTRAINT") {
		tok := p.peek()
		if !tok.Is("PRIMARY") && !tok.Is("UNIQUE") && !tok.Is("FOREIGN") && !tok.Is("CHECK") {
			id, err := p.ident()
			if err != nil {
				return con, nil, err
			}
			con.Name = &id
		}
	}

	tok := p.peek()
	switch {
	case p.accept("PRIMARY", "KEY"):
		con.Kind = catalog.ConstraintPrimaryKey
		if p.accept("USING") {
			p.next()
		}
		cols, err := p.identList()
		if err != nil {
			return con, nil, err
		}
		con.Columns = cols

	case p.accept("UNIQUE"):
		con.Kind = catalog.ConstraintUnique
		p.acceptAny("KEY", "INDEX")
		p.accept("NULLS", "NOT", "DISTINCT")
		p.accept("NULLS", "DISTINCT")
		if !p.peek().IsPunct("(") && !p.peek().Is("USING") {
			id, err := p.ident()
			if err != nil {
				return con, nil, err
			}
			if con.Name == nil {
				con.Name = &id
			}
		}
		if p.accept("USING") {
			p.next()
		}
		cols, err := p.identList()
		if err != nil {
			return con, nil, err
		}
		con.Columns = cols

	case p.accept("FOREIGN", "KEY"):
		con.Kind = catalog.ConstraintForeignKey
		if !p.peek().IsPunct("(") {
			id, err := p.ident()
			if err != nil {
				return con, nil, err
			}
			if con.Name == nil {
				con.Name = &id
			}
		}
		cols, err := p.identList()
		if err != nil {
			return con, nil, err
		}
		con.Columns = cols

		if _, err := p.expect("REFERENCES"); err != nil {
			return con, nil, err
		}
		ref, err := p.reference()
		if err != nil {
			return con, nil, err
		}
		con.Reference = ref

	case p.accept("CHECK"):
		con.Kind = catalog.ConstraintCheck
		expr, err := p.parenthesized()
		if err != nil {
			return con, nil, err
		}
		con.Expr = expr
		if !p.accept("NOT", "ENFORCED") {
			p.accept("ENFORCED")
		}
		p.accept("NO", "INHERIT")

	case p.dialect == dialect.MySQL && p.atIndexStart():
		idx, err := p.inlineIndex()
		if err != nil {
			return con, nil, err
		}
		return con, &idx, nil

	default:
		return con, nil, p.errorf(tok, "expected constraint but found %s", tok.describe())
	}

	// DEFERRABLE, NOT VALID, INCLUDE (...), USING INDEX TABLESPACE and
	// MySQL index options
	p.skipIndexOptions()
	return con, nil, nil
}

// reference parses the part of a REFERENCES clause after the keyword
func (p *parser) reference() (*Reference, error) {
	table, err := p.name()
	if err != nil {
		return nil, err
	}
	ref := &Reference{Table: table}

	if p.peek().IsPunct("(") {
		cols, err := p.identList()
		if err != nil {
			return nil, err
		}
		ref.Columns = cols
	}

	for {
		switch {
		case p.accept("MATCH"):
			p.next()
		case p.peek().Is("ON") && p.peekN(1).Is("DELETE"):
			p.pos += 2
			ref.OnDelete = p.referenceAction()
		case p.peek().Is("ON") && p.peekN(1).Is("UPDATE") && isReferenceAction(p.peekN(2)):
			p.pos += 2
			ref.OnUpdate = p.referenceAction()
		case p.accept("NOT", "DEFERRABLE"), p.accept("DEFERRABLE"),
			p.accept("INITIALLY", "DEFERRED"), p.accept("INITIALLY", "IMMEDIATE"):
		default:
			return ref, nil
		}
	}
}

func isReferenceAction(tok Token) bool {
	return tok.Is("CASCADE") || tok.Is("RESTRICT") || tok.Is("SET") || tok.Is("NO")
}

func (p *parser) referenceAction() string {
	switch {
	case p.accept("SET", "NULL"):
		return "SET NULL"
	case p.accept("SET", "DEFAULT"):
		return "SET DEFAULT"
	case p.accept("NO", "ACTION"):
		return "NO ACTION"
	default:
		return strings.ToUpper(p.next().Text)
	}
}

// identList parses ( col [modifiers], ... ) keeping the leading identifier
// of each element
func (p *parser) identList() ([]Ident, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var out []Ident
	for {
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		out = append(out, id)

		// ASC, DESC, prefix lengths and operator classes
		for !p.atStatementEnd() && !p.peek().IsPunct(",") && !p.peek().IsPunct(")") {
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		}

		if p.acceptPunct(",") {
			continue
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// indexElements parses an index element list. Plain columns become
// identifiers; expressions are kept verbatim.
func (p *parser) indexElements() ([]Ident, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var out []Ident
	for {
		start := p.pos
		first := p.peek()
		for !p.atStatementEnd() && !p.peek().IsPunct(",") && !p.peek().IsPunct(")") {
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		}
		if p.pos == start {
			return nil, p.errorf(p.peek(), "expected index element but found %s", p.peek().describe())
		}

		plain := p.pos-start == 1 || p.isColumnElementTail(start+1)
		switch {
		case first.Kind == Word && plain:
			out = append(out, Ident{Value: first.Text, Pos: first.Pos})
		case first.Kind == QuotedIdent && plain:
			out = append(out, Ident{Value: first.Value, Quoted: true, Pos: first.Pos})
		default:
			out = append(out, Ident{Value: p.text(start, p.pos), Quoted: true, Pos: first.Pos})
		}

		if p.acceptPunct(",") {
			continue
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// isColumnElementTail reports whether the tokens following a column name
// in an index element are modifiers (ASC, COLLATE, an operator class or a
// MySQL prefix length) rather than the rest of an expression
func (p *parser) isColumnElementTail(i int) bool {
	tok := p.tokens[i]
	if tok.Kind == Word {
		return true
	}
	return tok.IsPunct("(") && i+2 < len(p.tokens) &&
		p.tokens[i+1].Kind == Number && p.tokens[i+2].IsPunct(")")
}

// columnDef parses name type [options...]
func (p *parser) columnDef() (ColumnDef, error) {
	name, err := p.ident()
	if err != nil {
		return ColumnDef{}, err
	}
	col := ColumnDef{Name: name}

	typeStart := p.pos
	for !p.atStatementEnd() && !p.peek().IsPunct(",") && !p.peek().IsPunct(")") {
		if p.atColumnOptionStart() {
			break
		}
		if err := p.skipBalanced(); err != nil {
			return col, err
		}
	}
	if p.pos == typeStart && p.dialect != dialect.SQLite {
		return col, p.errorf(p.peek(), "expected data type for column %s but found %s", name.Value, p.peek().describe())
	}
	col.Type = p.text(typeStart, p.pos)

	if err := p.columnOptions(&col); err != nil {
		return col, err
	}
	return col, nil
}

func (p *parser) atColumnOptionStart() bool {
	tok := p.peek()
	if tok.Kind != Word {
		return false
	}
	switch strings.ToUpper(tok.Text) {
	case "CONSTRAINT", "NOT", "NULL", "DEFAULT", "PRIMARY", "UNIQUE", "CHECK", "REFERENCES",
		"GENERATED", "AS", "AUTO_INCREMENT", "AUTOINCREMENT", "COMMENT", "COLLATE", "CHARSET",
		"KEY", "VISIBLE", "INVISIBLE", "STORED", "VIRTUAL", "FIRST", "AFTER":
		return true
	case "ON":
		return p.peekN(1).Is("UPDATE")
	case "CHARACTER":
		return p.peekN(1).Is("SET")
	}
	return false
}

func (p *parser) columnOptions(col *ColumnDef) error {
	var pending *Ident

	add := func(opt ColumnOption) {
		opt.Name = pending
		pending = nil
		col.Options = append(col.Options, opt)
	}

	for {
		tok := p.peek()
		if p.atStatementEnd() || tok.IsPunct(",") || tok.IsPunct(")") || tok.Is("FIRST") || tok.Is("AFTER") {
			return nil
		}

		switch {
		case p.accept("CONSTRAINT"):
			id, err := p.ident()
			if err != nil {
				return err
			}
			pending = &id

		case p.accept("NOT", "NULL"):
			add(ColumnOption{Kind: catalog.OptionNotNull, Pos: tok.Pos})

		case p.accept("NULL"):
			add(ColumnOption{Kind: catalog.OptionNull, Pos: tok.Pos})

		case p.accept("DEFAULT"):
			expr := p.exprUntil(p.atColumnOptionStart)
			if expr == "" {
				return p.errorf(p.peek(), "expected default expression but found %s", p.peek().describe())
			}
			add(ColumnOption{Kind: catalog.OptionDefault, Expr: expr, Pos: tok.Pos})

		case p.accept("PRIMARY", "KEY"), p.accept("KEY"):
			p.acceptAny("ASC", "DESC")
			add(ColumnOption{Kind: catalog.OptionPrimaryKey, Pos: tok.Pos})

		case p.accept("UNIQUE"):
			p.accept("KEY")
			p.accept("NULLS", "NOT", "DISTINCT")
			add(ColumnOption{Kind: catalog.OptionUnique, Pos: tok.Pos})

		case p.accept("CHECK"):
			expr, err := p.parenthesized()
			if err != nil {
				return err
			}
			if !p.accept("NOT", "ENFORCED") {
				p.accept("ENFORCED")
			}
			add(ColumnOption{Kind: catalog.OptionCheck, Expr: expr, Pos: tok.Pos})

		case p.accept("REFERENCES"):
			ref, err := p.reference()
			if err != nil {
				return err
			}
			add(ColumnOption{Kind: catalog.OptionReferences, Reference: ref, Pos: tok.Pos})

		case p.accept("GENERATED"):
			mode := "ALWAYS"
			if !p.accept("ALWAYS") {
				if !p.accept("BY", "DEFAULT") {
					return p.errorf(p.peek(), "expected ALWAYS or BY DEFAULT but found %s", p.peek().describe())
				}
				mode = "BY DEFAULT"
				p.accept("ON", "NULL")
			}
			if _, err := p.expect("AS"); err != nil {
				return err
			}
			if p.accept("IDENTITY") {
				if p.peek().IsPunct("(") {
					if err := p.skipBalanced(); err != nil {
						return err
					}
				}
				add(ColumnOption{Kind: catalog.OptionIdentity, Expr: mode, Pos: tok.Pos})
				continue
			}
			expr, err := p.generatedExpr()
			if err != nil {
				return err
			}
			add(ColumnOption{Kind: catalog.OptionGenerated, Expr: expr, Pos: tok.Pos})

		case p.accept("AS"):
			expr, err := p.generatedExpr()
			if err != nil {
				return err
			}
			add(ColumnOption{Kind: catalog.OptionGenerated, Expr: expr, Pos: tok.Pos})

		case p.accept("AUTO_INCREMENT"), p.accept("AUTOINCREMENT"):
			add(ColumnOption{Kind: catalog.OptionAutoIncrement, Pos: tok.Pos})

		case p.accept("COMMENT"):
			str := p.next()
			if str.Kind != String {
				return p.errorf(str, "expected comment string but found %s", str.describe())
			}
			add(ColumnOption{Kind: catalog.OptionComment, Expr: str.Value, Pos: tok.Pos})

		case p.accept("ON", "UPDATE"):
			expr := p.exprUntil(p.atColumnOptionStart)
			add(ColumnOption{Kind: catalog.OptionOnUpdate, Expr: expr, Pos: tok.Pos})

		case p.accept("COLLATE"):
			c := p.next()
			if c.Kind == Word {
				col.Collation = c.Text
			} else {
				col.Collation = c.Value
			}

		case p.accept("CHARACTER", "SET"), p.accept("CHARSET"):
			cs := p.next()
			add(ColumnOption{Kind: catalog.OptionCharset, Expr: cs.Value, Pos: tok.Pos})

		case p.accept("ON", "CONFLICT"):
			p.next()

		case p.acceptAny("COLUMN_FORMAT", "STORAGE", "SRID") != "":
			p.next()

		case p.acceptAny("VISIBLE", "INVISIBLE", "STORED", "VIRTUAL") != "":

		default:
			return p.errorf(tok, "unexpected %s in definition of column %s", tok.describe(), col.Name.Value)
		}
	}
}

// generatedExpr parses ( expr ) [STORED | VIRTUAL]
func (p *parser) generatedExpr() (string, error) {
	expr, err := p.parenthesized()
	if err != nil {
		return "", err
	}
	if kind := p.acceptAny("STORED", "VIRTUAL"); kind != "" {
		expr += " " + kind
	}
	return expr, nil
}

// tableClauses parses everything between the table body and the end of
// the statement
func (p *parser) tableClauses(stmt *CreateTable) error {
	for !p.atStatementEnd() {
		tok := p.peek()

		switch {
		case p.acceptPunct(","):

		case tok.Is("AS"), tok.Is("SELECT"):
			p.next()
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "AS", Pos: tok.Pos})
			return p.skipStatement()

		case tok.Is("LIKE"), tok.IsPunct("(") && p.peekN(1).Is("LIKE"):
			paren := p.acceptPunct("(")
			p.next()
			source, err := p.name()
			if err != nil {
				return err
			}
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "LIKE", Text: source.String(), Pos: tok.Pos})
			if paren {
				p.exprUntil(nil)
				if _, err := p.expectPunct(")"); err != nil {
					return err
				}
			}

		case p.accept("INHERITS"):
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "INHERITS", Text: p.exprUntil(nil), Pos: tok.Pos})

		case p.accept("CLUSTER", "BY"):
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "CLUSTER BY", Text: p.exprUntil(nil), Pos: tok.Pos})

		case p.accept("PARTITION", "OF"):
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "PARTITION OF", Pos: tok.Pos})
			return p.skipStatement()

		case p.accept("PARTITION", "BY"):
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "PARTITION BY", Text: p.partitionSpec(), Pos: tok.Pos})

		case tok.Is("WITH") && p.peekN(1).IsPunct("("):
			p.next()
			opts, err := p.keyValueList()
			if err != nil {
				return err
			}
			for _, o := range opts {
				o.Keyword = "WITH"
				stmt.Clauses = append(stmt.Clauses, o)
			}

		case p.accept("WITHOUT", "OIDS"), p.accept("WITH", "OIDS"):

		case p.accept("WITHOUT", "ROWID"):
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "WITHOUT ROWID", Pos: tok.Pos})

		case tok.Is("STRICT") && p.dialect == dialect.SQLite:
			p.next()
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "STRICT", Pos: tok.Pos})

		case p.accept("ON", "COMMIT"):
			action := p.acceptAny("PRESERVE", "DELETE", "DROP")
			if action == "PRESERVE" || action == "DELETE" {
				if _, err := p.expect("ROWS"); err != nil {
					return err
				}
				action += " ROWS"
			}
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: "ON COMMIT", Text: action, Pos: tok.Pos})

		case p.accept("TABLESPACE"), p.accept("USING"):
			keyword := strings.ToUpper(p.tokens[p.pos-1].Text)
			id, err := p.ident()
			if err != nil {
				return err
			}
			// module arguments of SQLite virtual tables
			if p.peek().IsPunct("(") {
				if err := p.skipBalanced(); err != nil {
					return err
				}
			}
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: keyword, Text: id.Value, Pos: tok.Pos})

		case p.accept("ORDER", "BY"), p.accept("PRIMARY", "KEY"):
			keyword := strings.ToUpper(p.text(p.pos-2, p.pos))
			var list []string
			if p.peek().IsPunct("(") {
				cols, err := p.identList()
				if err != nil {
					return err
				}
				for _, c := range cols {
					list = append(list, c.Value)
				}
			} else {
				id, err := p.ident()
				if err != nil {
					return err
				}
				list = []string{id.Value}
			}
			stmt.Clauses = append(stmt.Clauses, Clause{Keyword: keyword, List: list, Pos: tok.Pos})

		case tok.Kind == Word:
			opt, err := p.tableOption()
			if err != nil {
				return err
			}
			stmt.Clauses = append(stmt.Clauses, opt)

		default:
			return p.errorf(tok, "unexpected %s after table definition", tok.describe())
		}
	}
	return nil
}

// partitionSpec captures a PARTITION BY specification including MySQL
// partition counts and definitions
func (p *parser) partitionSpec() string {
	start := p.pos
	for !p.atStatementEnd() && !p.peek().IsPunct("(") {
		p.next()
	}
	_ = p.skipBalanced()

	for {
		switch {
		case p.accept("PARTITIONS"), p.accept("SUBPARTITIONS"):
			p.next()
		case p.accept("SUBPARTITION", "BY"):
			for !p.atStatementEnd() && !p.peek().IsPunct("(") {
				p.next()
			}
			_ = p.skipBalanced()
		case p.peek().IsPunct("(") && p.dialect == dialect.MySQL:
			_ = p.skipBalanced()
		default:
			return p.text(start, p.pos)
		}
	}
}

// keyValueList parses ( key [= value], ... )
func (p *parser) keyValueList() ([]Clause, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var out []Clause
	for {
		start := p.peek()
		key, err := p.name()
		if err != nil {
			return nil, err
		}
		opt := Clause{Key: strings.ToLower(key.String()), Pos: start.Pos}
		if p.acceptPunct("=") {
			opt.Text = p.optionValue()
		}
		out = append(out, opt)

		if p.acceptPunct(",") {
			continue
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// tableOption parses a MySQL style [DEFAULT] key [=] value table option
func (p *parser) tableOption() (Clause, error) {
	start := p.peek()
	p.accept("DEFAULT")

	var key string
	switch {
	case p.accept("CHARACTER", "SET"), p.accept("CHARSET"):
		key = "CHARSET"
	default:
		tok := p.next()
		if tok.Kind != Word {
			return Clause{}, p.errorf(tok, "expected table option but found %s", tok.describe())
		}
		key = strings.ToUpper(tok.Text)
	}

	p.acceptPunct("=")
	if p.atStatementEnd() || p.peek().IsPunct(",") {
		return Clause{}, p.errorf(p.peek(), "expected value for table option %s", key)
	}

	return Clause{Keyword: "OPTION", Key: key, Text: p.optionValue(), Pos: start.Pos}, nil
}

func (p *parser) optionValue() string {
	tok := p.peek()
	switch tok.Kind {
	case String, QuotedIdent:
		p.next()
		return tok.Value
	case Punct:
		if tok.IsPunct("(") {
			start := p.pos
			_ = p.skipBalanced()
			return p.text(start, p.pos)
		}
	}
	start := p.pos
	if tok.IsPunct("-") || tok.IsPunct("+") {
		p.next()
	}
	p.next()
	for p.peek().IsPunct(".") && !p.atStatementEnd() {
		p.next()
		p.next()
	}
	return p.text(start, p.pos)
}
