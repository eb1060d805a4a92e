package diff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aita/migi/internal/catalog"
)

// ColumnChanges lists which aspects of a kept column differ
type ColumnChanges struct {
	Type        bool
	Nullability bool
	Default     bool
	Collation   bool
	// Options covers every option difference not captured by Nullability
	// or Default (keys, checks, references, comments...)
	Options bool
}

// Any reports whether at least one aspect differs
func (c ColumnChanges) Any() bool {
	return c.Type || c.Nullability || c.Default || c.Collation || c.Options
}

// Changes compares the previous and current definitions. Types and default
// expressions are compared in normalized form.
func (o *AlterColumn) Changes() ColumnChanges {
	prev, cur := o.Previous, o.Current

	prevDefault, prevHas := prev.Default()
	curDefault, curHas := cur.Default()

	return ColumnChanges{
		Type:        NormalizeType(prev.DataType) != NormalizeType(cur.DataType),
		Nullability: prev.Nullable() != cur.Nullable(),
		Default:     prevHas != curHas || NormalizeDefault(prevDefault) != NormalizeDefault(curDefault),
		Collation:   prev.Collation != cur.Collation,
		Options:     !slices.EqualFunc(otherOptions(prev), otherOptions(cur), catalog.ColumnOption.Equal),
	}
}

// IsNoop reports whether the column is unchanged
func (o *AlterColumn) IsNoop() bool {
	return !o.Changes().Any()
}

// Describe returns a short human readable list of the differences
func (o *AlterColumn) Describe() string {
	changes := o.Changes()
	if !changes.Any() {
		return "unchanged"
	}

	var notes []string
	if changes.Type {
		notes = append(notes, fmt.Sprintf("type %s -> %s", o.Previous.DataType, o.Current.DataType))
	}
	if changes.Nullability {
		if o.Current.Nullable() {
			notes = append(notes, "drop not null")
		} else {
			notes = append(notes, "set not null")
		}
	}
	if changes.Default {
		if def, ok := o.Current.Default(); ok {
			notes = append(notes, fmt.Sprintf("default %s", def))
		} else {
			notes = append(notes, "drop default")
		}
	}
	if changes.Collation {
		notes = append(notes, fmt.Sprintf("collation %q -> %q", o.Previous.Collation, o.Current.Collation))
	}
	if changes.Options {
		notes = append(notes, "options changed")
	}

	return strings.Join(notes, ", ")
}

// otherOptions drops the options compared separately
func otherOptions(c catalog.Column) []catalog.ColumnOption {
	var out []catalog.ColumnOption
	for _, opt := range c.Options {
		switch opt.Kind {
		case catalog.OptionNull, catalog.OptionNotNull, catalog.OptionDefault:
			continue
		}
		out = append(out, opt)
	}
	return out
}
