package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/model"
)

func newEntryCommand(repo repoFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Record and inspect journal entries",
	}
	cmd.AddCommand(newEntryAddCommand(repo), newEntryListCommand(repo))
	return cmd
}

func newEntryAddCommand(repo repoFunc) *cobra.Command {
	var date, memo, ref string
	var debits, credits []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a balanced journal entry",
		Example: `  books entry add --date 2024-01-05 --memo "Invoice 12" \
    --debit 1010=1000 --credit 4010=1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			entry := model.JournalEntry{Date: d, Memo: memo, Reference: ref}
			for _, spec := range debits {
				acct, amt, err := parseLine("debit", spec)
				if err != nil {
					return err
				}
				entry.Lines = append(entry.Lines, model.JournalLine{AccountID: acct, Description: memo, Debit: amt})
			}
			for _, spec := range credits {
				acct, amt, err := parseLine("credit", spec)
				if err != nil {
					return err
				}
				entry.Lines = append(entry.Lines, model.JournalLine{AccountID: acct, Description: memo, Credit: amt})
			}

			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				for i := range entry.Lines {
					entry.Lines[i].AccountID = accountRef(s.book, entry.Lines[i].AccountID)
				}
				appended, err := s.book.AppendEntry(ctx, entry)
				if err != nil {
					return err
				}
				debit, _ := appended.Totals()
				if err := s.record(ctx, auditlog.ActionEntryAppend, appended.ID, fmt.Sprintf("%s %s", debit.StringFixed(2), appended.Memo)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n", appended.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", today().Format(dateLayout), "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&memo, "memo", "", "memo")
	cmd.Flags().StringVar(&ref, "ref", "", "external reference")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "ACCOUNT=AMOUNT debit line (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "ACCOUNT=AMOUNT credit line (repeatable)")
	return cmd
}

// parseLine splits ACCOUNT=AMOUNT.
func parseLine(flag, spec string) (string, decimal.Decimal, error) {
	acct, amt, ok := strings.Cut(spec, "=")
	if !ok || acct == "" {
		return "", decimal.Decimal{}, fmt.Errorf("--%s: want ACCOUNT=AMOUNT, got %q", flag, spec)
	}
	d, err := parseAmount(flag, amt)
	if err != nil {
		return "", decimal.Decimal{}, err
	}
	return acct, d, nil
}

func newEntryListCommand(repo repoFunc) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, repo, func(_ context.Context, s *session) error {
				entries, err := filterEntries(s.book.ListEntries(), from, to)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tACCOUNT\tDEBIT\tCREDIT\tMEMO")
				for _, e := range entries {
					for i, l := range e.Lines {
						id, date, memo := "", "", ""
						if i == 0 {
							id, date, memo = e.ID, e.Date.Format(dateLayout), e.Memo
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", id, date, l.AccountID, amount(l.Debit), amount(l.Credit), memo)
					}
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	return cmd
}

// filterEntries keeps entries dated within [from, to]; empty bounds are open.
func filterEntries(entries []model.JournalEntry, from, to string) ([]model.JournalEntry, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = parseDate("from", from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if end, err = parseDate("to", to); err != nil {
			return nil, err
		}
	}
	var out []model.JournalEntry
	for _, e := range entries {
		if from != "" && e.Date.Before(start) {
			continue
		}
		if to != "" && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
