package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aita/migi/internal/diff"
	"github.com/aita/migi/internal/logger"
	"github.com/aita/migi/internal/render"
	"github.com/aita/migi/internal/source"
)

var (
	diffFrom   string
	diffTo     string
	diffFormat string
	diffOutput string
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two schema sources and print the migration",
		Long: `Diff loads two schema sources, compares them and prints the operations that
turn --from into --to.

A source is one of:
  empty                  an empty model
  db:<url>               a live database (postgres:// or mysql DSN)
  *.yaml, *.yml, *.json  a recorded snapshot
  anything else          comma separated DDL files or directories

--from defaults to the configured snapshot, --to to the configured schema paths.

Output formats: sql, text, yaml, json`,
		RunE: runDiff,
	}

	cmd.Flags().StringVar(&diffFrom, "from", "", "Previous schema source (default: configured snapshot)")
	cmd.Flags().StringVar(&diffTo, "to", "", "Current schema source (default: configured schema paths)")
	cmd.Flags().StringVarP(&diffFormat, "format", "f", "sql", "Output format: sql, text, yaml, json")
	cmd.Flags().StringVarP(&diffOutput, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	opts, err := sourceOptions()
	if err != nil {
		return err
	}

	var from, to source.Source
	if diffFrom == "" {
		from = &source.SnapshotFile{Path: migiConfig.Snapshot, Options: opts.Catalog, AllowMissing: true}
	} else if from, err = source.Parse(diffFrom, opts); err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	if diffTo == "" {
		to = &source.DDL{Paths: migiConfig.Paths, Options: opts.Catalog, Strict: opts.Strict}
	} else if to, err = source.Parse(diffTo, opts); err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	migration, err := diffSources(ctx, from, to)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := formatMigration(ctx, &sb, migration, diffFormat); err != nil {
		return err
	}
	return writeOutput(cmd, diffOutput, []byte(sb.String()), "Migration written to %s\n")
}

// diffSources loads both sources and compares them
func diffSources(ctx context.Context, from, to source.Source) (*diff.Migration, error) {
	log := logger.CLI()

	previous, err := from.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", from, err)
	}
	current, err := to.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", to, err)
	}
	log.Debug("Loaded sources", "from", from.String(), "to", to.String(),
		"previous_tables", previous.TableCount(), "current_tables", current.TableCount())

	migration, err := diff.NewGenerator(previous, current).Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s against %s: %w", from, to, err)
	}
	log.Info("Computed migration", "summary", migration.Summary())

	return migration, nil
}

// Report is the structured form of a migration printed by --format yaml|json
type Report struct {
	Dialect     string            `yaml:"dialect" json:"dialect"`
	Summary     string            `yaml:"summary" json:"summary"`
	Destructive bool              `yaml:"destructive" json:"destructive"`
	Operations  []OperationReport `yaml:"operations" json:"operations"`
	SQL         string            `yaml:"sql" json:"sql"`
}

// OperationReport describes one effective operation
type OperationReport struct {
	Kind        diff.OperationKind `yaml:"kind" json:"kind"`
	Object      string             `yaml:"object" json:"object"`
	Description string             `yaml:"description" json:"description"`
	Destructive bool               `yaml:"destructive,omitempty" json:"destructive,omitempty"`
}

func newReport(ctx context.Context, m *diff.Migration) (*Report, error) {
	sql, err := render.New(m.Dialect).RenderSQL(ctx, m)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Dialect:     m.Dialect.String(),
		Summary:     m.Summary(),
		Destructive: m.HasDestructiveChanges(),
		Operations:  []OperationReport{},
		SQL:         sql,
	}
	for _, op := range m.Effective() {
		report.Operations = append(report.Operations, OperationReport{
			Kind:        op.Kind(),
			Object:      op.Object().String(),
			Description: diff.Describe(op),
			Destructive: op.IsDestructive(),
		})
	}
	return report, nil
}

func formatMigration(ctx context.Context, w io.Writer, m *diff.Migration, format string) error {
	switch strings.ToLower(format) {
	case "sql":
		sql, err := render.New(m.Dialect).RenderSQL(ctx, m)
		if err != nil {
			return err
		}
		if sql == "" {
			_, err = fmt.Fprintln(w, "-- No changes detected")
			return err
		}
		_, err = io.WriteString(w, sql)
		return err

	case "text":
		fmt.Fprintln(w, m.Summary())
		for _, op := range m.Effective() {
			marker := " "
			if op.IsDestructive() {
				marker = "!"
			}
			fmt.Fprintf(w, "%s %s\n", marker, diff.Describe(op))
		}
		return nil

	case "yaml", "yml":
		report, err := newReport(ctx, m)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()

	case "json":
		report, err := newReport(ctx, m)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
