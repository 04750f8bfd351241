package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/gmail"
)

// appPasswordEnv lets scripts pass the app password without a flag.
const appPasswordEnv = "FINANCEAI_GMAIL_APP_PASSWORD"

type gmailFlags struct {
	email       string
	appPassword string
}

func (f *gmailFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Gmail address")
	cmd.Flags().StringVar(&f.appPassword, "app-password", "",
		"16 character app password (or $"+appPasswordEnv+")")
}

// credential fills in missing values from the environment and then an
// interactive prompt.
func (f *gmailFlags) credential() (gmail.Credential, error) {
	if f.appPassword == "" {
		f.appPassword = os.Getenv(appPasswordEnv)
	}
	if f.email == "" || f.appPassword == "" {
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewNote().
					Title("Connect Gmail").
					Description("Use an app password from your Google account security settings."),
				huh.NewInput().
					Title("Gmail address").
					Placeholder("you@gmail.com").
					Value(&f.email),
				huh.NewInput().
					Title("App password").
					Placeholder("xxxx xxxx xxxx xxxx").
					EchoMode(huh.EchoModePassword).
					Value(&f.appPassword),
			),
		).Run()
		if err != nil {
			return gmail.Credential{}, err
		}
	}
	return gmail.Credential{Email: f.email, AppPassword: f.appPassword}, nil
}

func newGmailCommand(flags *globalFlags, d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Connect Gmail and import bank transactions",
	}

	cmd.AddCommand(
		newGmailConnectCommand(flags, d),
		newGmailSyncCommand(flags, d),
		newGmailVerifyCommand(),
	)

	return cmd
}

func newGmailConnectCommand(flags *globalFlags, d deps) *cobra.Command {
	gf := &gmailFlags{}

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Check Gmail credentials with the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := gf.credential()
			if err != nil {
				return err
			}

			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			ctrl := gmail.NewController(e.client, gmail.WithLogger(e.logger))
			defer ctrl.Close()

			if err := ctrl.Connect(cmd.Context(), cred); err != nil {
				return gmailError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), gmail.ConnectedLabel(cred))
			return nil
		},
	}
	gf.register(cmd)

	return cmd
}

func newGmailSyncCommand(flags *globalFlags, d deps) *cobra.Command {
	gf := &gmailFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Connect Gmail and import new bank transactions",
		Long: "Credentials are never stored, so sync connects first and then " +
			"asks the backend to scan the mailbox.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := gf.credential()
			if err != nil {
				return err
			}

			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			ctrl := gmail.NewController(e.client, gmail.WithLogger(e.logger))
			defer ctrl.Close()

			ctx := cmd.Context()
			if err := ctrl.Connect(ctx, cred); err != nil {
				return gmailError(err)
			}
			result, err := ctrl.Sync(ctx)
			if err != nil {
				return gmailError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, gmail.ConnectedLabel(cred))
			fmt.Fprintf(out, "Scanned %d emails\n", result.TotalFound)
			fmt.Fprintf(out, "New transactions: %s\n", gmail.NewTransactionsLabel(&result))
			fmt.Fprintf(out, "Last sync: %s\n", gmail.FormatSyncedAt(&result, time.Now()))
			return nil
		},
	}
	gf.register(cmd)

	return cmd
}

func newGmailVerifyCommand() *cobra.Command {
	gf := &gmailFlags{}
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Log in to Gmail over IMAP directly to test an app password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := gf.credential()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			prober := gmail.NewProber()
			prober.Addr = addr
			res, err := prober.Probe(ctx, cred)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "App password OK: %s has %d messages, %d in the last 30 days\n",
				res.Mailbox, res.Messages, res.Recent)
			return nil
		},
	}
	gf.register(cmd)
	cmd.Flags().StringVar(&addr, "imap-addr", gmail.DefaultIMAPAddr, "IMAP server address")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")

	return cmd
}

// gmailError turns a controller error into the message the dashboard
// would show. The controller has already logged the underlying error.
func gmailError(err error) error {
	if msg := gmail.Message(err); msg != "" {
		return errors.New(msg)
	}
	return err
}
