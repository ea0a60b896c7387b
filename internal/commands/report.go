package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/model"
)

func newTrialBalanceCommand(repo repoFunc) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print gross debits and credits per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cutoff *time.Time
			if asOf != "" {
				d, err := parseDate("as-of", asOf)
				if err != nil {
					return err
				}
				cutoff = &d
			}
			return withSession(cmd, repo, func(_ context.Context, s *session) error {
				rows, err := s.book.TrialBalance(cutoff)
				if err != nil {
					return err
				}
				return writeTrialBalance(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "include entries up to this date (YYYY-MM-DD)")
	return cmd
}

func writeTrialBalance(w io.Writer, rows []model.TrialBalanceRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CODE\tNAME\tDEBIT\tCREDIT\t")
	debit, credit := decimal.Zero, decimal.Zero
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Code, r.Name, amount(r.Debit), amount(r.Credit))
		debit = debit.Add(r.Debit)
		credit = credit.Add(r.Credit)
	}
	fmt.Fprintf(tw, "\tTotal\t%s\t%s\t\n", debit.StringFixed(2), credit.StringFixed(2))
	return tw.Flush()
}

func newBalanceSheetCommand(repo repoFunc) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Print assets, liabilities and equity as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := today()
			if asOf != "" {
				var err error
				if d, err = parseDate("as-of", asOf); err != nil {
					return err
				}
			}
			return withSession(cmd, repo, func(_ context.Context, s *session) error {
				bs, err := s.book.BalanceSheet(d)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tw, "Balance sheet as of %s\t\t\t\n", bs.AsOf.Format(dateLayout))
				writeSection(tw, "Assets", bs.Assets)
				writeSection(tw, "Liabilities", bs.Liabilities)
				writeSection(tw, "Equity", bs.Equity)
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "statement date (default: today)")
	return cmd
}

func newIncomeStatementCommand(repo repoFunc) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "income-statement",
		Short: "Print income and expenses over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			end := today()
			start := time.Date(end.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
			var err error
			if from != "" {
				if start, err = parseDate("from", from); err != nil {
					return err
				}
			}
			if to != "" {
				if end, err = parseDate("to", to); err != nil {
					return err
				}
			}
			return withSession(cmd, repo, func(_ context.Context, s *session) error {
				is, err := s.book.IncomeStatement(start, end)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tw, "Income statement %s to %s\t\t\t\n", is.Start.Format(dateLayout), is.End.Format(dateLayout))
				writeSection(tw, "Income", is.Income)
				writeSection(tw, "Expenses", is.Expenses)
				fmt.Fprintf(tw, "\tNet income\t%s\t\n", is.NetIncome.StringFixed(2))
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (default: January 1 of this year)")
	cmd.Flags().StringVar(&to, "to", "", "last date (default: today)")
	return cmd
}

func writeSection(w io.Writer, title string, sec model.Section) {
	fmt.Fprintf(w, "%s\t\t\t\n", title)
	for _, l := range sec.Lines {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", l.Code, l.Name, l.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "\tTotal %s\t%s\t\n", title, sec.Total.StringFixed(2))
}

// amount renders zero as blank so debit and credit columns read cleanly.
func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
