package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/config"
	"github.com/aita/migi/internal/logger"
	"github.com/aita/migi/internal/source"
	"github.com/aita/migi/pkg/migi"
)

// Global configuration variables
var (
	configFile      string
	migiConfig      *config.Config
	dialectOverride string
	logFormat       string
	debug           bool
	verbose         bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "migi",
		Short: "migi - schema diff and migration generator",
		Long: `migi reads SQL DDL into a catalog model, compares two models and
generates the ordered DDL that turns one into the other.

migi provides tools for:
- Inspecting DDL files and live databases
- Diffing schema files, snapshots and databases
- Generating migration files from schema changes`,
		Version:       migi.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if dialectOverride != "" {
				cfg.Dialect = dialectOverride
			}

			level := cfg.Log.Level
			if verbose {
				level = "info"
			}
			if debug {
				level = "debug"
			}
			format := cfg.Log.Format
			if logFormat != "" {
				format = logFormat
			}

			if err := logger.Configure(logger.Options{
				Level:  level,
				Format: format,
				Output: cmd.ErrOrStderr(),
			}); err != nil {
				return err
			}

			migiConfig = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: migi.yaml)")
	rootCmd.PersistentFlags().StringVar(&dialectOverride, "dialect", "", "SQL dialect, overrides the config (postgres, mysql, sqlite)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newDiffCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newMCPCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// sourceOptions builds the options applied to source specs from the
// loaded configuration
func sourceOptions() (source.Options, error) {
	opts, err := catalogOptions()
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{Catalog: opts, Strict: migiConfig.Strict}, nil
}

func catalogOptions() (catalog.Options, error) {
	if migiConfig == nil {
		return catalog.Options{}, fmt.Errorf("configuration not loaded")
	}
	if err := migiConfig.Validate(); err != nil {
		return catalog.Options{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return migiConfig.CatalogOptions()
}
