package ddl

import (
	"fmt"
	"strings"

	"github.com/aita/migi/internal/dialect"
)

type parser struct {
	tokens  []Token
	pos     int
	dialect dialect.Dialect
}

// Parse tokenizes and parses a script of semicolon separated statements
func Parse(src string, d dialect.Dialect) ([]Statement, error) {
	tokens, err := Tokenize(src, d)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, dialect: d}

	var stmts []Statement
	for {
		for p.acceptPunct(";") {
		}
		if p.peek().Kind == EOF {
			return stmts, nil
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if !p.atStatementEnd() {
			return nil, p.errorf(p.peek(), "expected ; but found %s", p.peek().describe())
		}
	}
}

func (p *parser) statement() (Statement, error) {
	start := p.peek()
	switch {
	case start.Is("CREATE"):
		return p.create()
	case start.Is("ALTER") && p.peekN(1).Is("TABLE"):
		return p.alterTable()
	case start.Is("COMMENT") && p.peekN(1).Is("ON"):
		return p.commentOn()
	default:
		keyword := strings.ToUpper(start.Text)
		if (start.Is("DROP") || start.Is("ALTER")) && p.peekN(1).Kind == Word {
			keyword += " " + strings.ToUpper(p.peekN(1).Text)
		}
		return p.other(start.Pos, keyword)
	}
}

func (p *parser) create() (Statement, error) {
	at := p.next()

	var mods []Clause
	for {
		tok := p.peek()
		switch {
		case p.accept("OR", "REPLACE"):
			mods = append(mods, Clause{Keyword: "OR REPLACE", Pos: tok.Pos})
		case tok.Is("TEMPORARY"), tok.Is("TEMP"):
			p.next()
			mods = append(mods, Clause{Keyword: "TEMPORARY", Pos: tok.Pos})
		case tok.Is("GLOBAL"), tok.Is("LOCAL"), tok.Is("UNLOGGED"), tok.Is("EXTERNAL"),
			tok.Is("TRANSIENT"), tok.Is("VIRTUAL"), tok.Is("UNIQUE"), tok.Is("FULLTEXT"), tok.Is("SPATIAL"):
			p.next()
			mods = append(mods, Clause{Keyword: strings.ToUpper(tok.Text), Pos: tok.Pos})
		case tok.Is("TABLE"):
			return p.createTable(at.Pos, mods)
		case tok.Is("SCHEMA") && len(mods) == 0:
			return p.createSchema(at.Pos)
		case tok.Is("DATABASE") && len(mods) == 0:
			return p.createDatabase(at.Pos)
		case tok.Is("INDEX"):
			return p.createIndex(at.Pos, mods)
		default:
			keyword := "CREATE"
			if tok.Kind == Word {
				keyword += " " + strings.ToUpper(tok.Text)
			}
			return p.other(at.Pos, keyword)
		}
	}
}

func (p *parser) createSchema(at Pos) (Statement, error) {
	p.next()
	stmt := &CreateSchema{At: at}
	stmt.IfNotExists = p.accept("IF", "NOT", "EXISTS")

	if p.accept("AUTHORIZATION") {
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		stmt.Name = Name{id}
	} else {
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		stmt.Name = name
	}

	// AUTHORIZATION, DEFAULT CHARACTER SET and friends carry no model state
	if err := p.skipStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) createDatabase(at Pos) (Statement, error) {
	p.next()
	stmt := &CreateDatabase{At: at}
	stmt.IfNotExists = p.accept("IF", "NOT", "EXISTS")

	id, err := p.ident()
	if err != nil {
		return nil, err
	}
	stmt.Name = id

	if err := p.skipStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) createIndex(at Pos, mods []Clause) (Statement, error) {
	idxTok := p.next()
	idx := IndexDef{Pos: idxTok.Pos}
	for _, m := range mods {
		switch m.Keyword {
		case "UNIQUE":
			idx.Unique = true
		case "FULLTEXT", "SPATIAL":
			idx.Method = strings.ToLower(m.Keyword)
		}
	}

	p.accept("CONCURRENTLY")
	p.accept("IF", "NOT", "EXISTS")

	if !p.peek().Is("ON") && !p.peek().Is("USING") {
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		idx.Name = &id
	}
	if p.accept("USING") {
		idx.Method = strings.ToLower(p.next().Text)
	}

	if _, err := p.expect("ON"); err != nil {
		return nil, err
	}
	p.accept("ONLY")

	table, err := p.name()
	if err != nil {
		return nil, err
	}
	if p.accept("USING") {
		idx.Method = strings.ToLower(p.next().Text)
	}

	cols, err := p.indexElements()
	if err != nil {
		return nil, err
	}
	idx.Columns = cols

	for !p.atStatementEnd() {
		if p.accept("WHERE") {
			idx.Where = p.exprUntil(nil)
			continue
		}
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
	}

	return &CreateIndex{At: at, Table: table, Index: idx}, nil
}

func (p *parser) alterTable() (Statement, error) {
	at := p.next()
	p.next()

	p.accept("IF", "EXISTS")
	p.accept("ONLY")

	table, err := p.name()
	if err != nil {
		return nil, err
	}

	stmt := &AlterTable{At: at.Pos, Table: table}
	for {
		action, err := p.alterAction()
		if err != nil {
			return nil, err
		}
		stmt.Actions = append(stmt.Actions, action)

		if !p.acceptPunct(",") {
			return stmt, nil
		}
	}
}

func (p *parser) alterAction() (AlterAction, error) {
	at := p.peek().Pos

	switch {
	case p.accept("ADD"):
		if p.atConstraintStart() || (p.dialect == dialect.MySQL && p.atIndexStart()) {
			con, idx, err := p.tableConstraint()
			if err != nil {
				return nil, err
			}
			return &AddConstraintAction{Constraint: con, Index: idx, Pos: at}, nil
		}

		p.accept("COLUMN")
		action := &AddColumnAction{Pos: at}
		action.IfNotExists = p.accept("IF", "NOT", "EXISTS")

		col, err := p.columnDef()
		if err != nil {
			return nil, err
		}
		action.Column = col

		switch {
		case p.accept("FIRST"):
			action.First = true
		case p.accept("AFTER"):
			id, err := p.ident()
			if err != nil {
				return nil, err
			}
			action.After = &id
		}
		return action, nil

	case p.peek().Is("DROP") && p.peekN(1).Is("CONSTRAINT"):
		p.next()
		p.next()
		action := &DropConstraintAction{Pos: at}
		action.IfExists = p.accept("IF", "EXISTS")
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		action.Name = id
		p.acceptAny("CASCADE", "RESTRICT")
		return action, nil

	case p.peek().Is("DROP") && !p.peekN(1).Is("PRIMARY") && !p.peekN(1).Is("INDEX") &&
		!p.peekN(1).Is("KEY") && !p.peekN(1).Is("FOREIGN") && !p.peekN(1).Is("CHECK") &&
		!p.peekN(1).Is("DEFAULT"):
		p.next()
		p.accept("COLUMN")
		action := &DropColumnAction{Pos: at}
		action.IfExists = p.accept("IF", "EXISTS")
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		action.Column = id
		p.acceptAny("CASCADE", "RESTRICT")
		return action, nil
	}

	start := p.pos
	keyword := strings.ToUpper(p.peek().Text)
	if p.peekN(1).Kind == Word {
		keyword += " " + strings.ToUpper(p.peekN(1).Text)
	}
	text := p.exprUntil(nil)
	if p.pos == start {
		return nil, p.errorf(p.peek(), "expected ALTER TABLE action but found %s", p.peek().describe())
	}
	return &OtherAction{Clause: Clause{Keyword: keyword, Text: text, Pos: at}}, nil
}

func (p *parser) commentOn() (Statement, error) {
	at := p.next()
	p.next()

	targetTok := p.next()
	if targetTok.Kind != Word {
		return nil, p.errorf(targetTok, "expected comment target but found %s", targetTok.describe())
	}
	target := strings.ToUpper(targetTok.Text)
	if target == "MATERIALIZED" || target == "FOREIGN" {
		target += " " + strings.ToUpper(p.next().Text)
	}

	name, err := p.name()
	if err != nil {
		return nil, err
	}
	if p.peek().IsPunct("(") {
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
	}
	if p.accept("ON") {
		// COMMENT ON CONSTRAINT name ON table
		if _, err := p.name(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect("IS"); err != nil {
		return nil, err
	}

	stmt := &CommentOn{At: at.Pos, Target: target, Name: name}
	if p.accept("NULL") {
		stmt.IsNull = true
		return stmt, nil
	}

	tok := p.next()
	if tok.Kind != String {
		return nil, p.errorf(tok, "expected string but found %s", tok.describe())
	}
	stmt.Comment = tok.Value
	return stmt, nil
}

func (p *parser) other(at Pos, keyword string) (Statement, error) {
	if err := p.skipStatement(); err != nil {
		return nil, err
	}
	return &Other{At: at, Keyword: keyword}, nil
}

// skipStatement consumes tokens up to the terminating semicolon. BEGIN ...
// END and CASE ... END blocks may contain semicolons of their own.
func (p *parser) skipStatement() error {
	first := p.pos
	depth := 0
	for {
		tok := p.peek()
		switch {
		case tok.Kind == EOF:
			if depth > 0 {
				return p.errorf(tok, "unterminated block")
			}
			return nil
		case tok.IsPunct(";") && depth == 0:
			return nil
		case tok.Is("BEGIN") && p.pos != first && !p.peekN(1).IsPunct(";") &&
			!p.peekN(1).Is("TRANSACTION") && !p.peekN(1).Is("WORK"):
			depth++
		case tok.Is("CASE"):
			depth++
		case tok.Is("END") && depth > 0:
			next := p.peekN(1)
			switch {
			case next.Is("IF"), next.Is("LOOP"), next.Is("WHILE"), next.Is("REPEAT"):
				p.next()
			case next.Is("CASE"):
				p.next()
				depth--
			default:
				depth--
			}
		}
		p.next()
	}
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekN(n int) Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != EOF {
		p.pos++
	}
	return tok
}

// accept consumes the keyword sequence if it is next in the input
func (p *parser) accept(keywords ...string) bool {
	for i, kw := range keywords {
		if !p.peekN(i).Is(kw) {
			return false
		}
	}
	p.pos += len(keywords)
	return true
}

// acceptAny consumes one of the keywords and returns it upper-cased
func (p *parser) acceptAny(keywords ...string) string {
	for _, kw := range keywords {
		if p.accept(kw) {
			return kw
		}
	}
	return ""
}

func (p *parser) acceptPunct(s string) bool {
	if p.peek().IsPunct(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(keyword string) (Token, error) {
	tok := p.peek()
	if !tok.Is(keyword) {
		return tok, p.errorf(tok, "expected %s but found %s", keyword, tok.describe())
	}
	return p.next(), nil
}

func (p *parser) expectPunct(s string) (Token, error) {
	tok := p.peek()
	if !tok.IsPunct(s) {
		return tok, p.errorf(tok, "expected %q but found %s", s, tok.describe())
	}
	return p.next(), nil
}

func (p *parser) atStatementEnd() bool {
	tok := p.peek()
	return tok.Kind == EOF || tok.IsPunct(";")
}

func (p *parser) errorf(tok Token, format string, args ...interface{}) error {
	return &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) ident() (Ident, error) {
	tok := p.peek()
	switch tok.Kind {
	case Word:
		p.next()
		return Ident{Value: tok.Text, Pos: tok.Pos}, nil
	case QuotedIdent:
		p.next()
		return Ident{Value: tok.Value, Quoted: true, Pos: tok.Pos}, nil
	default:
		return Ident{}, p.errorf(tok, "expected identifier but found %s", tok.describe())
	}
}

// name parses a dot separated object name
func (p *parser) name() (Name, error) {
	id, err := p.ident()
	if err != nil {
		return nil, err
	}
	name := Name{id}
	for p.acceptPunct(".") {
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		name = append(name, id)
	}
	return name, nil
}

// skipBalanced consumes one token, or a whole parenthesized group
func (p *parser) skipBalanced() error {
	open := p.next()
	if !open.IsPunct("(") && !open.IsPunct("[") {
		return nil
	}

	depth := 1
	for depth > 0 {
		tok := p.next()
		switch {
		case tok.Kind == EOF:
			return p.errorf(open, "unbalanced %s", open.Text)
		case tok.IsPunct("("), tok.IsPunct("["):
			depth++
		case tok.IsPunct(")"), tok.IsPunct("]"):
			depth--
		}
	}
	return nil
}

// exprUntil consumes an expression up to a comma, closing parenthesis or
// statement end at depth zero, or until stop reports true. At least one
// token or group is consumed.
func (p *parser) exprUntil(stop func() bool) string {
	start := p.pos
	for {
		tok := p.peek()
		if p.atStatementEnd() || tok.IsPunct(",") || tok.IsPunct(")") {
			break
		}
		if p.pos > start && stop != nil && stop() {
			break
		}
		if err := p.skipBalanced(); err != nil {
			break
		}
	}
	return p.text(start, p.pos)
}

// parenthesized parses ( expr ) and returns the inner text
func (p *parser) parenthesized() (string, error) {
	open, err := p.expectPunct("(")
	if err != nil {
		return "", err
	}
	p.pos--
	start := p.pos + 1
	if err := p.skipBalanced(); err != nil {
		return "", err
	}
	if p.pos-1 <= start {
		return "", p.errorf(open, "empty expression")
	}
	return p.text(start, p.pos-1), nil
}

// text reconstructs tokens[from:to] with single spaces where the source
// had whitespace or comments
func (p *parser) text(from, to int) string {
	var sb strings.Builder
	for i := from; i < to; i++ {
		if i > from && p.tokens[i].Start > p.tokens[i-1].End {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.tokens[i].Text)
	}
	return sb.String()
}
