package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/dashboard"
	"github.com/nhle/financeai/internal/model"
)

func newDashboardCommand(flags *globalFlags, d deps) *cobra.Command {
	var asJSON, offline bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load(d)
			if err != nil {
				return err
			}
			defer e.Close()

			loader := dashboard.NewLoader(e.client, e.openCache(d), e.account(), e.logger)

			var snap *model.Snapshot
			if offline {
				snap, err = loader.Cached(cmd.Context())
			} else {
				snap, err = loader.Load(cmd.Context())
			}
			if err != nil {
				return userError("loading dashboard", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			return printSnapshot(cmd.OutOrStdout(), snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "show the last cached snapshot")

	return cmd
}

func printSnapshot(out io.Writer, snap *model.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Total balance\t%s\n", model.Money(snap.Stats.TotalBalance))
	fmt.Fprintf(w, "Monthly income\t%s\n", model.Money(snap.Stats.MonthlyIncome))
	fmt.Fprintf(w, "Monthly expenses\t%s\n", model.Money(snap.Stats.MonthlyExpenses))
	fmt.Fprintf(w, "Savings rate\t%s\n", model.Percent(snap.Stats.SavingsRate))

	if len(snap.Spending.Data) > 0 {
		fmt.Fprintln(w, "\nSpending by category\t")
		for _, c := range snap.Spending.Data {
			fmt.Fprintf(w, "  %s\t%s\t%.0f%%\n", c.Name, model.WholeMoney(c.Value), snap.Spending.Share(c)*100)
		}
	}

	if len(snap.Goals) > 0 {
		fmt.Fprintln(w, "\nGoals\t")
		for _, g := range snap.Goals {
			fmt.Fprintf(w, "  %s\t%s of %s\t%.0f%%\n",
				g.Title, model.WholeMoney(g.Current), model.WholeMoney(g.Target), g.Progress()*100)
		}
	}

	if len(snap.Transactions) > 0 {
		fmt.Fprintln(w, "\nRecent transactions\t")
		for _, t := range snap.Transactions {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				t.Date.Format("Jan 2"), t.Title, strings.TrimSpace(t.Category+" "+t.Bank), model.Money(t.Amount))
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if snap.Stale {
		fmt.Fprintf(out, "\nShowing cached data from %s\n", humanize.Time(snap.FetchedAt))
	}
	return nil
}
