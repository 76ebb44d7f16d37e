package commands

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

var versionQueries = map[string]string{
	"mysql":    "select version() as version",
	"postgres": "select current_setting('server_version') as version",
	"sqlite":   "select sqlite_version() as version",
}

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the connection and report server features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open("")
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if err := c.Ping(ctx); err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}

			detected, err := serverVersion(ctx, c)
			if err != nil {
				return err
			}
			if a.cfg.ServerVersion != "" {
				if stale, err := newerThan(a.cfg.ServerVersion, detected); err == nil && stale {
					ui.Warn("configured server_version %s is newer than the server (%s)", a.cfg.ServerVersion, detected)
				}
			}

			g, err := sqlgen.NewGrammar(c.Driver(), sqlgen.WithServerVersion(detected))
			if err != nil {
				return err
			}

			ui.Success("connected to %s", g.Name())
			return ui.KeyValues([][2]string{
				{"driver", c.Driver()},
				{"url", a.cfg.RedactedURL()},
				{"server version", detected},
				{"returning", strconv.FormatBool(g.SupportsReturning())},
				{"savepoints", strconv.FormatBool(g.SupportsSavepoints())},
			})
		},
	}
}

// serverVersion asks the server for its version and trims vendor suffixes.
func serverVersion(ctx context.Context, c *client.Client) (string, error) {
	query, ok := versionQueries[c.Grammar().Name()]
	if !ok {
		return "", fmt.Errorf("%w: %q", sqlgen.ErrUnknownDialect, c.Driver())
	}
	rows, err := c.Select(ctx, query, nil)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s returned no rows", query)
	}
	return extractVersion(fmt.Sprint(rows[0]["version"])), nil
}

func extractVersion(s string) string {
	if m := versionPattern.FindString(s); m != "" {
		return m
	}
	return s
}

// newerThan reports whether a is a later version than b.
func newerThan(a, b string) (bool, error) {
	va, err := version.NewVersion(a)
	if err != nil {
		return false, err
	}
	vb, err := version.NewVersion(b)
	if err != nil {
		return false, err
	}
	return va.GreaterThan(vb), nil
}
