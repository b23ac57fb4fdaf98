package commands

import (
	"fmt"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/spf13/cobra"
)

func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Returns the running version of " + constants.ErasureCmdName + " and exits",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return getVersion(cmd) },
	}
	a.cmd.AddCommand(cmd)
}

// getVersion prints the current tool version.
func getVersion(cmd *cobra.Command) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", constants.ErasureCmdName, constants.Version)
	return nil
}
