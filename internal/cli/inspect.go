package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/logger"
	"github.com/aita/migi/internal/snapshot"
	"github.com/aita/migi/internal/source"
)

var (
	inspectSource string
	inspectFormat string
	inspectOutput string
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [paths...]",
		Short: "Parse schema DDL and print the resulting model",
		Long: `Inspect reads CREATE statements into a catalog model and prints it.

Without arguments the configured schema paths are read. --source accepts any
source spec instead: a snapshot file, "db:<url>" for a live database, or
"empty".

Output formats: yaml, json, markdown, summary`,
		RunE: runInspect,
	}

	cmd.Flags().StringVarP(&inspectSource, "source", "s", "", "Source spec to inspect instead of DDL paths")
	cmd.Flags().StringVarP(&inspectFormat, "format", "f", "summary", "Output format: yaml, json, markdown, summary")
	cmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts, err := sourceOptions()
	if err != nil {
		return err
	}

	var src source.Source
	switch {
	case inspectSource != "" && len(args) > 0:
		return fmt.Errorf("--source cannot be combined with path arguments")
	case inspectSource != "":
		if src, err = source.Parse(inspectSource, opts); err != nil {
			return err
		}
	case len(args) > 0:
		src = &source.DDL{Paths: args, Options: opts.Catalog, Strict: opts.Strict}
	default:
		src = &source.DDL{Paths: migiConfig.Paths, Options: opts.Catalog, Strict: opts.Strict}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", src, err)
	}
	logger.CLI().Info("Inspected schema", "source", src.String(), "tables", db.TableCount())

	var output []byte
	switch strings.ToLower(inspectFormat) {
	case "summary":
		var sb strings.Builder
		writeSummary(&sb, db)
		output = []byte(sb.String())
	case "yaml", "yml":
		output, err = snapshot.Marshal(db, snapshot.FormatYAML)
	case "json":
		output, err = snapshot.Marshal(db, snapshot.FormatJSON)
	case "markdown", "md":
		output, err = snapshot.Marshal(db, snapshot.FormatMarkdown)
	default:
		return fmt.Errorf("unsupported format: %s", inspectFormat)
	}
	if err != nil {
		return err
	}

	return writeOutput(cmd, inspectOutput, output, "Schema exported to %s\n")
}

// writeSummary prints one line per schema and table
func writeSummary(w io.Writer, db *catalog.Dbinfo) {
	fmt.Fprintf(w, "Dialect: %s\n", db.Dialect)
	fmt.Fprintf(w, "Default catalog: %s\n", db.DefaultCatalog)
	fmt.Fprintf(w, "Tables: %d\n", db.TableCount())

	for _, catalogName := range db.CatalogNames() {
		cat := db.Catalogs[catalogName]
		for _, schemaName := range cat.SchemaNames() {
			s := cat.Schemas[schemaName]
			fmt.Fprintf(w, "\n%s (%d tables)\n", catalog.ObjectName{catalogName, schemaName}, len(s.Tables))
			for _, tableName := range s.TableNames() {
				t := s.Tables[tableName]
				fmt.Fprintf(w, "  %s (%d columns, %d constraints, %d indexes)\n",
					tableName, len(t.Columns), len(t.Constraints), len(t.Indexes))
			}
		}
	}
}

// writeOutput writes to path, or to the command's stdout when path is empty
func writeOutput(cmd *cobra.Command, path string, data []byte, notice string) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), notice, path)
	return nil
}
