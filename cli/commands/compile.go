package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/config"
	"github.com/satishbabariya/sqlkit/cli/internal/plan"
	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/cli/internal/watch"
	"github.com/satishbabariya/sqlkit/query/builder"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

var defaultDialects = []string{"mysql", "postgres", "sqlite"}

type compileOptions struct {
	dialects      []string
	prefix        string
	serverVersion string
	watch         bool
	markdown      bool
}

type compiled struct {
	dialect string
	query   *sqlgen.Query
}

func newCompileCommand(a *app) *cobra.Command {
	var o compileOptions

	cmd := &cobra.Command{
		Use:   "compile <plan.yaml>",
		Short: "Print the SQL a plan compiles to",
		Long: "Compile a YAML query plan for one or more dialects. Without --dialect the plan's\n" +
			"dialect is used, or all three dialects when the plan names none.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !o.watch {
				return a.compile(path, o)
			}

			w, err := watch.New(path, func() error {
				if err := a.compile(path, o); err != nil {
					ui.Error("%v", err)
				}
				return nil
			}, watch.WithErrorHandler(func(err error) { ui.Error("%v", err) }))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ui.Warn("watching %s, press ctrl+c to stop", path)
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringSliceVarP(&o.dialects, "dialect", "d", nil, "Dialects to compile for (mysql, postgres, sqlite)")
	cmd.Flags().StringVar(&o.prefix, "prefix", "", "Table prefix (overrides the plan and config)")
	cmd.Flags().StringVar(&o.serverVersion, "server-version", "", "Server version used for feature gating")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Recompile when the plan changes")
	cmd.Flags().BoolVar(&o.markdown, "markdown", false, "Render a markdown report")

	return cmd
}

func (a *app) compile(path string, o compileOptions) error {
	f, err := plan.Load(config.AppFs, path)
	if err != nil {
		return err
	}

	prefix := firstNonEmpty(o.prefix, f.Prefix, a.cfg.Prefix)
	serverVersion := firstNonEmpty(o.serverVersion, a.cfg.ServerVersion)
	results, err := compilePlan(f, dialectsFor(f, o.dialects), prefix, serverVersion)
	if err != nil {
		return err
	}

	if o.markdown {
		return ui.Markdown(markdownReport(path, results))
	}
	for _, r := range results {
		ui.Statement(r.dialect, r.query.SQL, r.query.Args)
	}
	return nil
}

func dialectsFor(f *plan.File, flags []string) []string {
	if len(flags) > 0 {
		return flags
	}
	if f.Dialect != "" {
		return []string{f.Dialect}
	}
	return defaultDialects
}

func compilePlan(f *plan.File, dialects []string, prefix, serverVersion string) ([]compiled, error) {
	out := make([]compiled, 0, len(dialects))
	for _, d := range dialects {
		g, err := sqlgen.NewGrammar(d, sqlgen.WithTablePrefix(prefix), sqlgen.WithServerVersion(serverVersion))
		if err != nil {
			return nil, err
		}
		q, err := f.Apply(builder.New(g)).Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		out = append(out, compiled{dialect: g.Name(), query: q})
	}
	return out, nil
}

func markdownReport(title string, results []compiled) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", title)
	for _, r := range results {
		fmt.Fprintf(&sb, "\n## %s\n\n```sql\n%s\n```\n", r.dialect, r.query.SQL)
		if len(r.query.Args) == 0 {
			sb.WriteString("\n_no bindings_\n")
			continue
		}
		sb.WriteString("\n| # | binding |\n|---|---|\n")
		for i, arg := range r.query.Args {
			fmt.Fprintf(&sb, "| %d | `%#v` |\n", i+1, arg)
		}
	}
	return sb.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
