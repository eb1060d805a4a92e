package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aita/migi/pkg/migi"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display migi version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), migi.FullVersionInfo())
		},
	}
}
