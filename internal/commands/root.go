package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/app"
	"github.com/nhle/financeai/internal/buildinfo"
	"github.com/nhle/financeai/internal/model"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultDeps())
}

func newRootCommand(d deps) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "financeai",
		Short:   "Personal finance dashboard in the terminal",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(flags, d)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", model.DefaultConfigPath(), "config file")
	pf.StringVar(&flags.apiURL, "api-url", "", "backend URL, overrides the environment")
	pf.StringVar(&flags.env, "env", "", `backend environment ("production" or "local")`)
	pf.StringVar(&flags.logLevel, "log-level", "", "log level")

	rootCmd.AddCommand(
		newLoginCommand(flags, d),
		newLogoutCommand(flags, d),
		newRegisterCommand(flags, d),
		newWhoamiCommand(flags, d),
		newGmailCommand(flags, d),
		newDashboardCommand(flags, d),
		newAdviseCommand(flags, d),
		newMockServerCommand(flags),
		newConfigCommand(flags),
	)

	return rootCmd
}

func runTUI(flags *globalFlags, d deps) error {
	e, err := flags.load(d)
	if err != nil {
		return err
	}
	defer e.Close()

	m := app.New(app.Deps{
		Config:      e.cfg,
		Client:      e.client,
		Credentials: e.creds,
		Cache:       e.openCache(d),
		Logger:      e.logger,
	})

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if fm, ok := final.(app.Model); ok {
		fm.Close()
	}
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
