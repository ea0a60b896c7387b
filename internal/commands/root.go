// Package commands wires the books CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/books"
	"github.com/cleared-dev/books/internal/buildinfo"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/depreciation"
	"github.com/cleared-dev/books/internal/gitops"
	"github.com/cleared-dev/books/internal/logging"
	"github.com/cleared-dev/books/internal/store"
)

const dateLayout = "2006-01-02"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var repoDir string

	rootCmd := &cobra.Command{
		Use:     "books",
		Short:   "Double-entry bookkeeping for a small business",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&repoDir, "repo", ".", "repository directory")

	repo := func() (string, error) {
		abs, err := filepath.Abs(repoDir)
		if err != nil {
			return "", fmt.Errorf("resolving path: %w", err)
		}
		return abs, nil
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(repo),
		newEntryCommand(repo),
		newTrialBalanceCommand(repo),
		newBalanceSheetCommand(repo),
		newIncomeStatementCommand(repo),
		newAssetCommand(repo),
		newDepreciateCommand(repo),
		newWatchCommand(repo),
		newImportCommand(repo),
	)

	return rootCmd
}

// repoFunc resolves the --repo flag once flags are parsed.
type repoFunc func() (string, error)

// session is one opened book plus the side channels every mutation feeds.
type session struct {
	root  string
	cfg   *config.Config
	log   *logrus.Logger
	book  *books.Book
	audit *auditlog.Log
}

func openSession(ctx context.Context, root string, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("not a books repository (run `books init`): %w", err)
	}
	if err := config.ApplyEnv(cfg, filepath.Join(root, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	log, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		return nil, err
	}

	opts, err := bookOptions(cfg, log)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Storage.Driver, cfg.StoreDSN(root))
	if err != nil {
		return nil, err
	}
	b, err := books.Open(ctx, st, opts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &session{
		root:  root,
		cfg:   cfg,
		log:   log,
		book:  b,
		audit: auditlog.New(root, "cli"),
	}, nil
}

func bookOptions(cfg *config.Config, log logrus.FieldLogger) (books.Options, error) {
	tol, err := cfg.LedgerTolerance()
	if err != nil {
		return books.Options{}, err
	}
	threshold, err := cfg.DepreciationThreshold()
	if err != nil {
		return books.Options{}, err
	}
	match, err := depreciation.ParseMatchMode(cfg.Depreciation.Match)
	if err != nil {
		return books.Options{}, err
	}
	return books.Options{
		EntityType:    cfg.Business.EntityType,
		CashAccountID: cfg.Ledger.CashAccountID,
		Tolerance:     tol,
		Depreciation: depreciation.Options{
			Match:     match,
			Currency:  cfg.Currency,
			Threshold: threshold,
		},
		Logger: log,
	}, nil
}

func (s *session) Close() error {
	return s.book.Close()
}

// record appends an audit row and, when enabled, commits the repository.
func (s *session) record(ctx context.Context, action, subject, details string) error {
	if err := s.audit.Record(action, subject, details); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	if !s.cfg.Git.AutoCommit || !gitops.IsRepo(s.root) {
		return nil
	}
	msg := action
	if subject != "" {
		msg += ": " + subject
	}
	hash, err := gitops.CommitIfChanged(ctx, s.root, msg, s.cfg.Git.AuthorName, s.cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	if hash != "" {
		s.log.WithFields(logrus.Fields{"commit": hash, "action": action}).Debug("committed")
	}
	return nil
}

// withSession opens the book for the duration of fn.
func withSession(cmd *cobra.Command, repo repoFunc, fn func(ctx context.Context, s *session) error) error {
	root, err := repo()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func parseDate(flag, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

func parseAmount(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("--%s: invalid amount %q", flag, s)
	}
	return d, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
