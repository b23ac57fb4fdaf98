package commands

import (
	"fmt"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/spf13/cobra"
)

func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Returns the running version of " + constants.EmitterCmdName + " and exits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", constants.EmitterCmdName, constants.Version)
			return nil
		},
	}
	a.cmd.AddCommand(cmd)
}
