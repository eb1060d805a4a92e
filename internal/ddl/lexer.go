package ddl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aita/migi/internal/dialect"
)

var multiCharPuncts = []string{"->>", "::", "<=", ">=", "<>", "!=", "||", "->", "=>", ":="}

type lexer struct {
	src     string
	dialect dialect.Dialect
	off     int
	line    int
	col     int
}

// Tokenize splits src into tokens, dropping whitespace and comments. The
// last token is always EOF.
func Tokenize(src string, d dialect.Dialect) ([]Token, error) {
	lx := &lexer{src: src, dialect: d, line: 1, col: 1}

	var tokens []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

func (lx *lexer) pos() Pos {
	return Pos{Line: lx.line, Col: lx.col}
}

func (lx *lexer) peekRune(ahead int) rune {
	off := lx.off
	for i := 0; i < ahead; i++ {
		if off >= len(lx.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(lx.src[off:])
		off += size
	}
	if off >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[off:])
	return r
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) errorf(p Pos, format string, args ...interface{}) error {
	return &SyntaxError{Pos: p, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) skipSpaceAndComments() error {
	for lx.off < len(lx.src) {
		r := lx.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == '-' && lx.peekRune(1) == '-', r == '#' && lx.dialect == dialect.MySQL:
			for lx.off < len(lx.src) && lx.peekRune(0) != '\n' {
				lx.advance()
			}
		case r == '/' && lx.peekRune(1) == '*':
			start := lx.pos()
			lx.advance()
			lx.advance()
			depth := 1
			for depth > 0 {
				if lx.off >= len(lx.src) {
					return lx.errorf(start, "unterminated comment")
				}
				switch {
				case lx.peekRune(0) == '*' && lx.peekRune(1) == '/':
					lx.advance()
					lx.advance()
					depth--
				case lx.peekRune(0) == '/' && lx.peekRune(1) == '*' && lx.dialect == dialect.Postgres:
					lx.advance()
					lx.advance()
					depth++
				default:
					lx.advance()
				}
			}
		default:
			return nil
		}
	}
	return nil
}

func (lx *lexer) next() (Token, error) {
	if err := lx.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}

	start, p := lx.off, lx.pos()
	if lx.off >= len(lx.src) {
		return Token{Kind: EOF, Pos: p, Start: start, End: start}, nil
	}

	r := lx.peekRune(0)
	switch {
	case isStringPrefix(r) && lx.peekRune(1) == '\'':
		lx.advance()
		return lx.quoted(start, p, String, '\'')
	case r == '\'':
		return lx.quoted(start, p, String, '\'')
	case r == '"':
		if lx.dialect == dialect.MySQL {
			return lx.quoted(start, p, String, '"')
		}
		return lx.quoted(start, p, QuotedIdent, '"')
	case r == '`':
		return lx.quoted(start, p, QuotedIdent, '`')
	case r == '[' && lx.dialect == dialect.SQLite:
		return lx.quoted(start, p, QuotedIdent, ']')
	case r == '$' && lx.dialect == dialect.Postgres && !unicode.IsDigit(lx.peekRune(1)):
		if tok, ok, err := lx.dollarQuoted(start, p); ok || err != nil {
			return tok, err
		}
	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peekRune(1))):
		return lx.number(start, p), nil
	case isIdentStart(r):
		for lx.off < len(lx.src) && isIdentPart(lx.peekRune(0)) {
			lx.advance()
		}
		return lx.token(Word, start, p), nil
	}

	for _, punct := range multiCharPuncts {
		if strings.HasPrefix(lx.src[lx.off:], punct) {
			for range punct {
				lx.advance()
			}
			return lx.token(Punct, start, p), nil
		}
	}

	if r == '$' {
		// positional parameter such as $1
		lx.advance()
		for lx.off < len(lx.src) && unicode.IsDigit(lx.peekRune(0)) {
			lx.advance()
		}
		return lx.token(Punct, start, p), nil
	}

	lx.advance()
	return lx.token(Punct, start, p), nil
}

func (lx *lexer) token(kind TokenKind, start int, p Pos) Token {
	text := lx.src[start:lx.off]
	return Token{Kind: kind, Text: text, Value: text, Pos: p, Start: start, End: lx.off}
}

// quoted reads a quoted identifier or string. The closing quote is escaped
// by doubling it; MySQL strings also accept backslash escapes.
func (lx *lexer) quoted(start int, p Pos, kind TokenKind, closing rune) (Token, error) {
	lx.advance()

	backslash := kind == String && lx.dialect == dialect.MySQL
	if kind == String && lx.off-start == 2 {
		// E'...' strings in Postgres use backslash escapes
		prefix := lx.src[start]
		backslash = backslash || prefix == 'E' || prefix == 'e'
	}

	var sb strings.Builder
	for {
		if lx.off >= len(lx.src) {
			return Token{}, lx.errorf(p, "unterminated %s", kind)
		}
		r := lx.advance()
		switch {
		case backslash && r == '\\' && lx.off < len(lx.src):
			sb.WriteRune(unescape(lx.advance()))
		case r == closing:
			if lx.peekRune(0) == closing && closing != ']' {
				lx.advance()
				sb.WriteRune(r)
				continue
			}
			tok := lx.token(kind, start, p)
			tok.Value = sb.String()
			return tok, nil
		default:
			sb.WriteRune(r)
		}
	}
}

// dollarQuoted reads a Postgres $tag$...$tag$ string
func (lx *lexer) dollarQuoted(start int, p Pos) (Token, bool, error) {
	rest := lx.src[lx.off+1:]
	end := strings.IndexByte(rest, '$')
	if end < 0 {
		return Token{}, false, nil
	}
	tag := rest[:end]
	for _, r := range tag {
		if !isIdentPart(r) || r == '$' {
			return Token{}, false, nil
		}
	}

	delim := "$" + tag + "$"
	bodyStart := lx.off + len(delim)
	closeAt := strings.Index(lx.src[bodyStart:], delim)
	if closeAt < 0 {
		return Token{}, true, lx.errorf(p, "unterminated dollar-quoted string")
	}

	target := bodyStart + closeAt + len(delim)
	for lx.off < target {
		lx.advance()
	}

	tok := lx.token(String, start, p)
	tok.Value = lx.src[bodyStart : bodyStart+closeAt]
	return tok, true, nil
}

func (lx *lexer) number(start int, p Pos) Token {
	for lx.off < len(lx.src) {
		r := lx.peekRune(0)
		switch {
		case unicode.IsDigit(r) || r == '.':
			lx.advance()
		case (r == 'e' || r == 'E') && (unicode.IsDigit(lx.peekRune(1)) ||
			((lx.peekRune(1) == '+' || lx.peekRune(1) == '-') && unicode.IsDigit(lx.peekRune(2)))):
			lx.advance()
			lx.advance()
		default:
			return lx.token(Number, start, p)
		}
	}
	return lx.token(Number, start, p)
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return r
	}
}

func isStringPrefix(r rune) bool {
	switch r {
	case 'E', 'e', 'N', 'n', 'X', 'x', 'B', 'b':
		return true
	}
	return false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
