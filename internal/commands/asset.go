package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/books"
	"github.com/cleared-dev/books/internal/depreciation"
)

func newAssetCommand(repo repoFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage fixed assets",
	}
	cmd.AddCommand(newAssetAddCommand(repo), newAssetListCommand(repo))
	return cmd
}

func newAssetAddCommand(repo repoFunc) *cobra.Command {
	var spec books.AssetSpec
	var cost, salvage, acquired string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an asset and record its acquisition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if spec.Cost, err = parseAmount("cost", cost); err != nil {
				return err
			}
			if spec.SalvageValue, err = parseAmount("salvage", salvage); err != nil {
				return err
			}
			if spec.AcquisitionDate, err = parseDate("acquired", acquired); err != nil {
				return err
			}
			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				for _, ref := range []*string{&spec.AccountID, &spec.DepreciationExpenseAccountID, &spec.AccumulatedDepAccountID, &spec.FundingAccountID} {
					*ref = accountRef(s.book, *ref)
				}
				a, err := s.book.AddAsset(ctx, spec)
				if err != nil {
					return err
				}
				if err := s.record(ctx, auditlog.ActionAssetAdd, a.ID, fmt.Sprintf("%s cost %s", a.Name, a.Cost.StringFixed(2))); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added asset %s (%s)\n", a.Name, a.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&spec.Name, "name", "", "asset name")
	cmd.Flags().StringVar(&cost, "cost", "", "acquisition cost")
	cmd.Flags().StringVar(&salvage, "salvage", "0", "salvage value")
	cmd.Flags().IntVar(&spec.UsefulLifeYears, "life", 0, "useful life in years")
	cmd.Flags().StringVar(&acquired, "acquired", today().Format(dateLayout), "acquisition date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&spec.AccountID, "account", "", "asset account ID or code (default: equipment)")
	cmd.Flags().StringVar(&spec.DepreciationExpenseAccountID, "expense-account", "", "depreciation expense account")
	cmd.Flags().StringVar(&spec.AccumulatedDepAccountID, "accumulated-account", "", "accumulated depreciation account")
	cmd.Flags().StringVar(&spec.FundingAccountID, "funding-account", "", "account credited on acquisition (default: cash)")
	return cmd
}

func newAssetListCommand(repo repoFunc) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets with scheduled accumulated depreciation",
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
				scale := depreciation.CurrencyScale(s.cfg.Currency)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tACQUIRED\tCOST\tMONTHLY\tACCUMULATED")
				for _, a := range s.book.ListAssets() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						a.ID, a.Name, a.AcquisitionDate.Format(dateLayout),
						a.Cost.StringFixed(2),
						depreciation.Monthly(a).StringFixed(scale),
						depreciation.Accumulated(a, d, scale).StringFixed(scale))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "schedule date (default: today)")
	return cmd
}
