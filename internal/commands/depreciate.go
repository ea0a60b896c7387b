package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
)

func newDepreciateCommand(repo repoFunc) *cobra.Command {
	var asOf string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "depreciate",
		Short: "Post depreciation owed up to a date",
		Long: `Posts one entry per asset whose accumulated depreciation is behind
schedule. Running it again for the same date posts nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := today()
			if asOf != "" {
				var err error
				if d, err = parseDate("as-of", asOf); err != nil {
					return err
				}
			}
			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				if dryRun {
					for _, e := range s.book.GenerateDepreciationEntries(d) {
						fmt.Fprintf(cmd.OutOrStdout(), "would post %s %s\n", e.Lines[0].Debit.StringFixed(2), e.Memo)
					}
					return nil
				}
				return depreciate(ctx, s, d, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "depreciation date (default: today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print entries without posting them")
	return cmd
}

func depreciate(ctx context.Context, s *session, asOf time.Time, out io.Writer) error {
	posted, err := s.book.RunDepreciation(ctx, asOf)
	if err != nil {
		return err
	}
	if len(posted) == 0 {
		fmt.Fprintf(out, "Depreciation is current as of %s\n", asOf.Format(dateLayout))
		return nil
	}
	for _, e := range posted {
		fmt.Fprintf(out, "Posted %s %s %s\n", e.ID, e.Lines[0].Debit.StringFixed(2), e.Memo)
	}
	return s.record(ctx, auditlog.ActionDepreciationRun, asOf.Format(dateLayout), fmt.Sprintf("%d entries", len(posted)))
}

func newWatchCommand(repo repoFunc) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run depreciation daily at depreciation.run_at until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				return watch(ctx, s, runNow, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "also run once at startup")
	return cmd
}

func watch(ctx context.Context, s *session, runNow bool, out io.Writer) error {
	job := func() {
		if err := depreciate(ctx, s, today(), out); err != nil {
			s.log.WithError(err).Error("scheduled depreciation failed")
		}
	}
	if runNow {
		job()
	}

	runAt := s.cfg.Depreciation.RunAt
	if runAt == "" {
		runAt = "01:00"
	}
	sched := gocron.NewScheduler()
	sched.Every(1).Day().At(runAt).Do(job)
	stop := sched.Start()
	s.log.WithField("run_at", runAt).Info("depreciation scheduled")

	<-ctx.Done()
	stop <- true
	sched.Clear()
	return nil
}
