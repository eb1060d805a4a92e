package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aita/migi/internal/config"
	"github.com/aita/migi/internal/dialect"
)

var (
	initDatabase string
	initForce    bool
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new migi configuration file",
		Long: `Creates a migi.yaml configuration file with default settings.
This helps you get started with migi by creating a template configuration
that you can customize for your project.`,
		RunE: runInit,
	}

	cmd.Flags().StringVar(&initDatabase, "database", "", "Default database name (defaults to the dialect's convention)")
	cmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultFile
	}
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	cfg := config.Default()
	if migiConfig != nil {
		cfg.Dialect = migiConfig.Dialect
	}

	d, err := dialect.Parse(cfg.Dialect)
	if err != nil {
		return err
	}
	cfg.Dialect = d.String()

	cfg.Database = config.DefaultDatabase(d)
	if initDatabase != "" {
		cfg.Database = initDatabase
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s configuration file\n", configPath)
	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "1. Put your CREATE statements under %v\n", cfg.Paths)
	fmt.Fprintf(out, "2. Run 'migi inspect' to check the schema parses\n")
	fmt.Fprintf(out, "3. Run 'migi generate' to write the first migration\n")

	return nil
}
