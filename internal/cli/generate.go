package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aita/migi/internal/diff"
	"github.com/aita/migi/internal/logger"
	"github.com/aita/migi/internal/render"
	"github.com/aita/migi/internal/snapshot"
	"github.com/aita/migi/internal/source"
)

var (
	generateName             string
	generateDryRun           bool
	generateAllowDestructive bool
)

// ErrDestructiveChanges is returned when a migration would lose data and
// --allow-destructive was not given
var ErrDestructiveChanges = errors.New("migration has destructive operations; rerun with --allow-destructive")

// now is replaced in tests
var now = time.Now

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_]+`)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a migration file from schema changes",
		Long: `Generate compares the recorded snapshot with the configured schema paths,
writes the DDL that brings the snapshot up to date to
<migrations dir>/<timestamp>_<name>.sql and records the new snapshot.

Without a snapshot the first migration creates the whole schema.`,
		RunE: runGenerate,
	}

	cmd.Flags().StringVar(&generateName, "name", "schema_update", "Migration name")
	cmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Print the migration without writing files")
	cmd.Flags().BoolVar(&generateAllowDestructive, "allow-destructive", false, "Allow operations that may lose data")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, err := sourceOptions()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, err = generate(ctx, cmd.OutOrStdout(), generateRequest{
		Previous:         &source.SnapshotFile{Path: migiConfig.Snapshot, Options: opts.Catalog, AllowMissing: true},
		Current:          &source.DDL{Paths: migiConfig.Paths, Options: opts.Catalog, Strict: opts.Strict},
		Name:             generateName,
		Dir:              migiConfig.MigrationsDir,
		Snapshot:         migiConfig.Snapshot,
		DryRun:           generateDryRun,
		AllowDestructive: generateAllowDestructive,
	})
	return err
}

type generateRequest struct {
	Previous         source.Source
	Current          source.Source
	Name             string
	Dir              string
	Snapshot         string
	DryRun           bool
	AllowDestructive bool
}

// generate writes the migration and records the snapshot. It returns the
// path of the migration file, or "" when nothing was written.
func generate(ctx context.Context, out io.Writer, req generateRequest) (string, error) {
	log := logger.CLI()

	previous, err := req.Previous.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", req.Previous, err)
	}
	current, err := req.Current.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", req.Current, err)
	}

	migration, err := diff.NewGenerator(previous, current).Generate()
	if err != nil {
		return "", fmt.Errorf("failed to diff %s against %s: %w", req.Previous, req.Current, err)
	}

	stmts, err := render.New(migration.Dialect).Render(ctx, migration)
	if err != nil {
		return "", err
	}
	if len(stmts) == 0 {
		fmt.Fprintln(out, "No schema changes detected! Snapshot is up to date.")
		return "", nil
	}

	fmt.Fprintf(out, "Found %d migration statements: %s\n", len(stmts), migration.Summary())

	if migration.HasDestructiveChanges() && !req.AllowDestructive {
		fmt.Fprintln(out, "\nPOTENTIALLY DESTRUCTIVE OPERATIONS DETECTED:")
		for _, desc := range migration.Destructive() {
			fmt.Fprintf(out, "  - %s\n", desc)
		}
		return "", ErrDestructiveChanges
	}

	name := migrationName(req.Name)
	var sb strings.Builder
	fmt.Fprintf(&sb, "-- Migration: %s\n", name)
	fmt.Fprintf(&sb, "-- Generated at: %s\n", now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "-- Dialect: %s\n\n", migration.Dialect)
	sb.WriteString(render.Join(stmts))

	if req.DryRun {
		fmt.Fprintln(out, "\n=== Migration ===")
		fmt.Fprint(out, sb.String())
		return "", nil
	}

	if err := os.MkdirAll(req.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(req.Dir, fmt.Sprintf("%s_%s.sql", now().UTC().Format("20060102150405"), name))
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write migration: %w", err)
	}

	if err := snapshot.Save(req.Snapshot, current); err != nil {
		return "", fmt.Errorf("migration written to %s but snapshot not recorded: %w", path, err)
	}
	log.Info("Recorded snapshot", "path", req.Snapshot, "tables", current.TableCount())

	fmt.Fprintf(out, "\nMigration file created: %s\n", path)
	fmt.Fprintf(out, "Snapshot updated: %s\n", req.Snapshot)

	return path, nil
}

func migrationName(name string) string {
	name = unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "schema_update"
	}
	return name
}
