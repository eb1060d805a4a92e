package diff

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	typeAliases = map[string]string{
		"character varying":           "varchar",
		"character":                   "char",
		"int":                         "integer",
		"int2":                        "smallint",
		"int4":                        "integer",
		"int8":                        "bigint",
		"float4":                      "real",
		"float8":                      "double precision",
		"numeric":                     "decimal",
		"boolean":                     "bool",
		"timestamp with time zone":    "timestamptz",
		"timestamp without time zone": "timestamp",
		"time with time zone":         "timetz",
		"time without time zone":      "time",
		"serial4":                     "serial",
		"serial8":                     "bigserial",
	}

	// Sorted by length (longest first) so specific aliases win
	sortedAliases = func() []string {
		keys := make([]string, 0, len(typeAliases))
		for k := range typeAliases {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		return keys
	}()

	typeCasts = func() []string {
		casts := []string{
			"::text",
			"::character varying",
			"::varchar",
			"::character",
			"::char",
			"::jsonb",
			"::json",
			"::integer",
			"::bigint",
			"::boolean",
			"::bool",
			"::timestamptz",
			"::timestamp with time zone",
			"::timestamp without time zone",
			"::interval",
			"::numeric",
			"::decimal",
			"::real",
			"::double precision",
		}
		sort.Slice(casts, func(i, j int) bool {
			return len(casts[i]) > len(casts[j])
		})
		return casts
	}()

	spaceBeforeParen = regexp.MustCompile(`\s+\(`)
	spaceInParens    = regexp.MustCompile(`\s*,\s*`)
	multiSpace       = regexp.MustCompile(`\s+`)
	emptyArrayLit    = regexp.MustCompile(`^'?\{\}'?::\w+\[\]$`)
	emptyArrayCtor   = regexp.MustCompile(`^ARRAY\[\]::\w+\[\]$`)
	emptyJSON        = regexp.MustCompile(`^'?\{\}'?::jsonb?$`)
	clockInterval    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// NormalizeType normalizes type names to a canonical form to avoid false
// positives when comparing column types
func NormalizeType(typeName string) string {
	normalized := strings.ToLower(strings.TrimSpace(typeName))
	normalized = multiSpace.ReplaceAllString(normalized, " ")

	for _, original := range sortedAliases {
		if normalized == original || strings.HasPrefix(normalized, original+"(") ||
			strings.HasPrefix(normalized, original+" ") || strings.HasPrefix(normalized, original+"[") {
			normalized = typeAliases[original] + normalized[len(original):]
			break
		}
	}

	normalized = spaceBeforeParen.ReplaceAllString(normalized, "(")
	normalized = spaceInParens.ReplaceAllString(normalized, ",")

	return normalized
}

// NormalizeDefault normalizes default value expressions
func NormalizeDefault(defaultValue string) string {
	if defaultValue == "" {
		return ""
	}

	normalized := strings.TrimSpace(defaultValue)

	// '30 seconds'::interval -> 30 seconds
	if strings.Contains(normalized, "::interval") {
		normalized = normalizeIntervalDefault(normalized)
	}

	if emptyArrayLit.MatchString(normalized) || emptyArrayCtor.MatchString(normalized) {
		return "{}"
	}

	if normalized == "{}" || emptyJSON.MatchString(normalized) {
		return "{}"
	}

	for _, cast := range typeCasts {
		re := regexp.MustCompile(regexp.QuoteMeta(cast) + `(?:\(\d+(?:,\d+)?\))?`)
		normalized = re.ReplaceAllString(normalized, "")
	}

	// Parentheses around simple values
	if strings.HasPrefix(normalized, "(") && strings.HasSuffix(normalized, ")") {
		inner := normalized[1 : len(normalized)-1]
		if !strings.Contains(inner, "(") {
			normalized = inner
		}
	}

	if len(normalized) >= 2 && strings.HasPrefix(normalized, "'") && strings.HasSuffix(normalized, "'") {
		normalized = normalized[1 : len(normalized)-1]
	}

	replacements := map[string]string{
		"now()":               "now()",
		"CURRENT_TIMESTAMP":   "now()",
		"current_timestamp()": "now()",
		"gen_random_uuid()":   "gen_random_uuid()",
		"uuid_generate_v4()":  "gen_random_uuid()",
		"true":                "true",
		"false":               "false",
	}

	for old, repl := range replacements {
		if strings.EqualFold(normalized, old) {
			return repl
		}
	}

	return normalized
}

// normalizeIntervalDefault rewrites clock formatted intervals into words
func normalizeIntervalDefault(value string) string {
	value = strings.TrimSuffix(value, "::interval")
	value = strings.Trim(value, "'\"")

	if clockInterval.MatchString(value) {
		parts := strings.Split(value, ":")
		hours, _ := strconv.Atoi(parts[0])
		minutes, _ := strconv.Atoi(parts[1])
		seconds, _ := strconv.Atoi(parts[2])

		switch {
		case hours == 0 && minutes == 0:
			return fmt.Sprintf("%d seconds", seconds)
		case hours == 0:
			return fmt.Sprintf("%d minutes %d seconds", minutes, seconds)
		default:
			return fmt.Sprintf("%d hours %d minutes %d seconds", hours, minutes, seconds)
		}
	}

	return value
}

// isUnsafeTypeChange checks if changing from one type to another could lose data
func isUnsafeTypeChange(oldType, newType string) bool {
	safeConversions := map[string][]string{
		"varchar":   {"text"},
		"char":      {"varchar", "text"},
		"smallint":  {"integer", "bigint"},
		"integer":   {"bigint"},
		"real":      {"double precision"},
		"timestamp": {"timestamptz"},
	}

	oldBase := strings.Split(NormalizeType(oldType), "(")[0]
	newBase := strings.Split(NormalizeType(newType), "(")[0]

	if oldBase == newBase {
		return false
	}

	for _, safe := range safeConversions[oldBase] {
		if safe == newBase {
			return false
		}
	}

	return true
}
