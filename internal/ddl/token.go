package ddl

import (
	"fmt"
	"strings"
)

// Pos is a 1-based line and column in the source text
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// TokenKind classifies a token
type TokenKind int

const (
	EOF TokenKind = iota
	Word
	QuotedIdent
	String
	Number
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Word:
		return "word"
	case QuotedIdent:
		return "quoted identifier"
	case String:
		return "string"
	case Number:
		return "number"
	case Punct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is a lexical token. Text is the raw source; Value is the decoded
// content for quoted identifiers and strings.
type Token struct {
	Kind  TokenKind
	Text  string
	Value string
	Pos   Pos
	Start int
	End   int
}

// Is reports whether the token is the given keyword, case-insensitively
func (t Token) Is(keyword string) bool {
	return t.Kind == Word && strings.EqualFold(t.Text, keyword)
}

// IsPunct reports whether the token is the given punctuation
func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Text == p
}

func (t Token) describe() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

// SyntaxError reports malformed DDL
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}
