package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/advisor"
)

func newAdviseCommand(flags *globalFlags, d deps) *cobra.Command {
	var suggestions bool

	cmd := &cobra.Command{
		Use:   "advise [question]",
		Short: "Ask the AI advisor a question",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if suggestions || len(args) == 0 {
				for _, s := range advisor.Suggestions {
					fmt.Fprintln(out, s)
				}
				return nil
			}

			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			opts := []advisor.Option{advisor.WithLogger(e.logger)}
			if cache := e.openCache(d); cache != nil {
				opts = append(opts, advisor.WithHistory(cache, e.account()))
			}
			adv := advisor.New(e.client, e.cfg.Advisor.RequestsPerMinute, opts...)

			reply, err := adv.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return userError("advisor", err)
			}
			fmt.Fprintln(out, reply.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&suggestions, "suggestions", false, "list suggested questions")

	return cmd
}
