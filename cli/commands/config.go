package commands

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/config"
	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the connection settings",
	}
	cmd.AddCommand(newConfigShowCommand(a), newConfigInitCommand(a))
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.KeyValues([][2]string{
				{"driver", a.cfg.Driver},
				{"url", a.cfg.RedactedURL()},
				{"prefix", a.cfg.Prefix},
				{"server_version", a.cfg.ServerVersion},
				{"debug", strconv.FormatBool(a.cfg.Debug)},
			})
		},
	}
}

type configAnswers struct {
	Driver        string `survey:"driver"`
	URL           string `survey:"url"`
	Prefix        string `survey:"prefix"`
	ServerVersion string `survey:"server_version"`
	Debug         bool   `survey:"debug"`
}

func newConfigInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively write ~/.config/sqlkit/.sqlkit.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			answers := configAnswers{}
			if err := survey.Ask(configQuestions(a.cfg), &answers); err != nil {
				return err
			}

			path, err := config.SaveConfig(&config.Config{
				Driver:        answers.Driver,
				URL:           answers.URL,
				Prefix:        answers.Prefix,
				ServerVersion: answers.ServerVersion,
				Debug:         answers.Debug,
			})
			if err != nil {
				return err
			}
			ui.Success("wrote %s", path)
			return nil
		},
	}
}

func configQuestions(current *config.Config) []*survey.Question {
	drivers := client.Drivers()
	driver := &survey.Select{Message: "Driver:", Options: drivers}
	for _, d := range drivers {
		if d == current.Driver {
			driver.Default = d
		}
	}

	return []*survey.Question{
		{Name: "driver", Prompt: driver},
		{
			Name:     "url",
			Prompt:   &survey.Input{Message: "Connection URL:", Default: current.URL},
			Validate: survey.Required,
		},
		{
			Name:   "prefix",
			Prompt: &survey.Input{Message: "Table prefix:", Default: current.Prefix},
		},
		{
			Name:     "server_version",
			Prompt:   &survey.Input{Message: "Server version (blank to skip):", Default: current.ServerVersion},
			Validate: validVersion,
		},
		{
			Name:   "debug",
			Prompt: &survey.Confirm{Message: "Log statements?", Default: current.Debug},
		},
	}
}

func validVersion(ans interface{}) error {
	s, _ := ans.(string)
	if s == "" {
		return nil
	}
	if _, err := version.NewVersion(s); err != nil {
		return fmt.Errorf("not a version: %s", s)
	}
	return nil
}
