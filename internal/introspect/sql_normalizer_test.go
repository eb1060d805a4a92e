package introspect

import (
	"testing"
)

func TestSQLNormalizer_NormalizeExpr(t *testing.T) {
	normalizer := NewSQLNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty expression",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace normalization",
			input:    "  price   >\n 0  ",
			expected: "price > 0",
		},
		{
			name:     "single outer parentheses",
			input:    "(price > 0)",
			expected: "price > 0",
		},
		{
			name:     "nested outer parentheses",
			input:    "((price > (0)::numeric))",
			expected: "price > (0)::numeric",
		},
		{
			name:     "separate groups are kept",
			input:    "(a > 0) AND (b > 0)",
			expected: "(a > 0) AND (b > 0)",
		},
		{
			name:     "parentheses inside strings",
			input:    "(name <> ')')",
			expected: "name <> ')'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizer.NormalizeExpr(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeExpr(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSQLNormalizer_NormalizeDefault(t *testing.T) {
	normalizer := NewSQLNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "text literal",
			input:    "'active'::text",
			expected: "'active'",
		},
		{
			name:     "varchar literal",
			input:    "'active'::character varying",
			expected: "'active'",
		},
		{
			name:     "escaped quote",
			input:    "'it''s'::text",
			expected: "'it''s'",
		},
		{
			name:     "array literal",
			input:    "'{}'::text[]",
			expected: "'{}'",
		},
		{
			name:     "timestamp literal",
			input:    "'2024-01-01 00:00:00'::timestamp without time zone",
			expected: "'2024-01-01 00:00:00'",
		},
		{
			name:     "numeric literal",
			input:    "0::numeric(10,2)",
			expected: "0",
		},
		{
			name:     "function call is kept",
			input:    "nextval('users_id_seq'::regclass)",
			expected: "nextval('users_id_seq'::regclass)",
		},
		{
			name:     "plain value",
			input:    "now()",
			expected: "now()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizer.NormalizeDefault(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeDefault(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSQLNormalizer_NormalizeIndexMethod(t *testing.T) {
	normalizer := NewSQLNormalizer()

	tests := map[string]string{
		"":      "",
		"btree": "",
		"BTREE": "",
		" gin ": "gin",
		"HASH":  "hash",
		"gist":  "gist",
	}

	for input, expected := range tests {
		if result := normalizer.NormalizeIndexMethod(input); result != expected {
			t.Errorf("NormalizeIndexMethod(%q) = %q, expected %q", input, result, expected)
		}
	}
}

func TestSQLNormalizer_NormalizeReferenceAction(t *testing.T) {
	normalizer := NewSQLNormalizer()

	tests := map[string]string{
		"NO ACTION": "",
		"no action": "",
		"CASCADE":   "CASCADE",
		"set null":  "SET NULL",
		"":          "",
	}

	for input, expected := range tests {
		if result := normalizer.NormalizeReferenceAction(input); result != expected {
			t.Errorf("NormalizeReferenceAction(%q) = %q, expected %q", input, result, expected)
		}
	}
}
