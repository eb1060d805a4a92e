package introspect

import (
	"regexp"
	"strings"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	castLiteral = regexp.MustCompile(`^('(?:[^']|'')*'|-?\d+(?:\.\d+)?)::[a-z_ ]+(?:\(\d+(?:,\s*\d+)?\))?(?:\[\])?$`)
)

// SQLNormalizer rewrites expressions read from a catalog into the form the
// same expression takes when written by hand in DDL
type SQLNormalizer struct{}

// NewSQLNormalizer creates a new SQL normalizer
func NewSQLNormalizer() *SQLNormalizer {
	return &SQLNormalizer{}
}

// NormalizeExpr collapses whitespace and removes redundant outer parentheses
func (n *SQLNormalizer) NormalizeExpr(expr string) string {
	expr = strings.TrimSpace(whitespace.ReplaceAllString(expr, " "))
	for strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		inner := strings.TrimSpace(expr[1 : len(expr)-1])
		if !n.isBalancedParentheses(inner) {
			break
		}
		expr = inner
	}
	return expr
}

// NormalizeDefault strips the type cast Postgres attaches to literal
// defaults ('x'::text, 0::numeric)
func (n *SQLNormalizer) NormalizeDefault(expr string) string {
	expr = n.NormalizeExpr(expr)
	if m := castLiteral.FindStringSubmatch(expr); m != nil {
		return m[1]
	}
	return expr
}

// NormalizeIndexMethod maps the default btree method to the empty method an
// index without USING has
func (n *SQLNormalizer) NormalizeIndexMethod(method string) string {
	method = strings.TrimSpace(strings.ToLower(method))
	if method == "btree" {
		return ""
	}
	return method
}

// NormalizeReferenceAction maps the default NO ACTION rule to the empty
// action a REFERENCES clause without ON DELETE/ON UPDATE has
func (n *SQLNormalizer) NormalizeReferenceAction(rule string) string {
	rule = strings.ToUpper(strings.TrimSpace(rule))
	if rule == "NO ACTION" {
		return ""
	}
	return rule
}

// isBalancedParentheses checks if parentheses are balanced in a string
func (n *SQLNormalizer) isBalancedParentheses(s string) bool {
	count := 0
	inString := false
	for _, r := range s {
		switch {
		case r == '\'':
			inString = !inString
		case inString:
		case r == '(':
			count++
		case r == ')':
			count--
			if count < 0 {
				return false
			}
		}
	}
	return count == 0
}
