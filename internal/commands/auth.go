package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/credential"
)

func newLoginCommand(flags *globalFlags, d deps) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the FinanceAI backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				if err := promptLogin(&email, &password); err != nil {
					return err
				}
			}

			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			return runLogin(cmd.Context(), cmd, e, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")

	return cmd
}

func promptLogin(email, password *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(required("password")),
		),
	).Run()
}

func required(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func runLogin(ctx context.Context, cmd *cobra.Command, e *env, email, password string) error {
	resp, err := e.client.Login(ctx, email, password)
	if err != nil {
		return userError("login failed", err)
	}
	if err := e.creds.SaveSession(resp.AccessToken, resp.User); err != nil {
		return err
	}

	e.logger.Info().Str("email", resp.User.Email).Msg("logged in")
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(resp.User.Name, resp.User.Email))
	return nil
}

func newLogoutCommand(flags *globalFlags, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.creds.ClearSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newRegisterCommand(flags *globalFlags, d deps) *cobra.Command {
	var req api.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" || req.Email == "" || req.Password == "" {
				err := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().Title("Name").Value(&req.Name).Validate(required("name")),
						huh.NewInput().Title("Email").Value(&req.Email).Validate(required("email")),
						huh.NewInput().
							Title("Password").
							EchoMode(huh.EchoModePassword).
							Value(&req.Password).
							Validate(required("password")),
					),
				).Run()
				if err != nil {
					return err
				}
			}

			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.client.Register(cmd.Context(), req); err != nil {
				return userError("registration failed", err)
			}
			return runLogin(cmd.Context(), cmd, e, req.Email, req.Password)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")

	return cmd
}

func newWhoamiCommand(flags *globalFlags, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.creds.User()
			if errors.Is(err, credential.ErrNoSession) {
				return errors.New("not logged in, run `financeai login`")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

// userError prefixes err with what failed, using the backend's detail
// when it sent one.
func userError(what string, err error) error {
	if detail, ok := api.Detail(err); ok {
		return fmt.Errorf("%s: %s", what, detail)
	}
	if api.IsTransport(err) {
		return fmt.Errorf("%s: failed to connect to server: %w", what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func displayName(name, email string) string {
	if name == "" {
		return email
	}
	return name
}
