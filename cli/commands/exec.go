package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/config"
	"github.com/satishbabariya/sqlkit/cli/internal/plan"
	"github.com/satishbabariya/sqlkit/cli/internal/ui"
)

func newExecCommand(a *app) *cobra.Command {
	var (
		raw   string
		count bool
	)

	cmd := &cobra.Command{
		Use:   "exec [plan.yaml]",
		Short: "Run a plan or a raw select against the configured database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw == "" && len(args) == 0 {
				return errors.New("exec needs a plan file or --sql")
			}

			var f *plan.File
			if len(args) == 1 {
				var err error
				if f, err = plan.Load(config.AppFs, args[0]); err != nil {
					return err
				}
			}

			prefix := ""
			if f != nil {
				prefix = f.Prefix
			}
			c, err := a.open(prefix)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()

			if raw != "" {
				rows, err := c.Select(ctx, raw, nil)
				if err != nil {
					return err
				}
				return ui.Rows(rows)
			}

			b := f.Apply(c.Query())
			if count {
				n, err := b.Count(ctx)
				if err != nil {
					return err
				}
				ui.Success("%d rows", n)
				return nil
			}

			rows, err := b.Get(ctx)
			if err != nil {
				return err
			}
			return ui.Rows(rows)
		},
	}

	cmd.Flags().StringVar(&raw, "sql", "", "Raw select to run instead of a plan")
	cmd.Flags().BoolVar(&count, "count", false, "Print the row count instead of the rows")

	return cmd
}
