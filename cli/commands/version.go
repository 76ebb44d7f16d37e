package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/cli/internal/version"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if short {
				fmt.Fprintln(ui.Out, info.Version)
				return nil
			}
			return ui.KeyValues(info.Pairs())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
