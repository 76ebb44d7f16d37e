// Package commands implements the sqlkit CLI.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/config"
	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/cli/internal/version"
	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

// app is the state shared by every command.
type app struct {
	debug bool
	cfg   *config.Config
}

// NewRootCommand creates the sqlkit command tree.
func NewRootCommand() *cobra.Command {
	a := &app{cfg: &config.Config{Driver: "sqlite"}}

	cmd := &cobra.Command{
		Use:           "sqlkit",
		Short:         "Compile and run query plans",
		Long:          "sqlkit compiles YAML query plans to MySQL, PostgreSQL and SQLite and runs them against a configured database.",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			debug.Init(a.debug || cfg.Debug)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log every statement to stderr")

	cmd.AddCommand(
		newCompileCommand(a),
		newExecCommand(a),
		newPingCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command and reports errors.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		ui.Error("%v", err)
		return err
	}
	return nil
}

var errNoURL = errors.New("no database url: set url in .sqlkit.yaml, SQLKIT_URL or DATABASE_URL")

// open connects with the configured driver. A non-empty prefix overrides
// the configured one.
func (a *app) open(prefix string) (*client.Client, error) {
	if a.cfg.URL == "" {
		return nil, errNoURL
	}
	if prefix == "" {
		prefix = a.cfg.Prefix
	}

	opts := []client.Option{client.WithTablePrefix(prefix)}
	if a.cfg.ServerVersion != "" {
		opts = append(opts, client.WithServerVersion(a.cfg.ServerVersion))
	}
	return client.Open(a.cfg.Driver, a.cfg.URL, opts...)
}
