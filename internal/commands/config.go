package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/model"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigInitCommand(flags), newConfigShowCommand(flags))

	return cmd
}

func newConfigInitCommand(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			// Defaults plus any --env/--api-url given on the command line.
			cfg, err := model.LoadConfig(os.DevNull)
			if err != nil {
				return err
			}
			if flags.env != "" {
				cfg.API.Environment = flags.env
			}
			if flags.apiURL != "" {
				cfg.API.URL = flags.apiURL
			}

			if err := model.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environment: %s\n", cfg.API.Environment)
			fmt.Fprintf(out, "api:         %s\n", cfg.API.BaseURL())
			fmt.Fprintf(out, "log:         %s (%s)\n", cfg.Log.File, cfg.Log.Level)
			fmt.Fprintf(out, "cache:       %s (enabled: %t)\n", cfg.Cache.Path, cfg.Cache.Enabled)
			return nil
		},
	}
}
