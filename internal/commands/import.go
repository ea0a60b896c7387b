package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/importer"
)

func newImportCommand(repo repoFunc) *cobra.Command {
	var format, bank string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import bank CSV exports as journal entries",
		Long: `Each bank transaction becomes a two-line entry between the bank account
and an offset account. Transactions already in the journal are skipped.
Without arguments every CSV in import/ is imported and moved to
import/processed/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				acct, fmtName, err := importTarget(s.cfg, bank, format)
				if err != nil {
					return err
				}

				scanned := len(args) == 0
				files := args
				if scanned {
					found, err := importer.Scan(s.root)
					if err != nil {
						return err
					}
					for _, f := range found {
						files = append(files, f.Path)
					}
				}

				reg := importer.DefaultRegistry()
				for _, path := range files {
					res, err := importer.ImportFile(ctx, s.book, reg, fmtName, path, acct, s.log)
					if n := len(res.Posted); n > 0 {
						details := fmt.Sprintf("%d posted, %d skipped", n, len(res.Skipped))
						if rerr := s.record(ctx, auditlog.ActionImport, filepath.Base(path), details); rerr != nil {
							return rerr
						}
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d posted, %d skipped\n", filepath.Base(path), len(res.Posted), len(res.Skipped))
					if scanned {
						if err := importer.MarkProcessed(s.root, filepath.Base(path)); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", fmt.Sprintf("file format: %s (default: the bank account's importer, else chase)",
		strings.Join(importer.DefaultRegistry().Formats(), ", ")))
	cmd.Flags().StringVar(&bank, "bank", "", "bank account name from books.yaml (default: the first one)")
	return cmd
}

// importTarget resolves the posting accounts and format for an import.
// Without configured bank accounts the ledger cash account is used.
func importTarget(cfg *config.Config, bank, format string) (importer.Accounts, string, error) {
	acct := importer.Accounts{
		Bank:       cfg.Ledger.CashAccountID,
		Deposit:    accounts.ServiceRevenueID,
		Withdrawal: accounts.UncategorizedExpenseID,
	}
	if acct.Bank == "" {
		acct.Bank = accounts.CashID
	}

	var ba *config.BankAccount
	for i := range cfg.BankAccounts {
		if bank == "" || strings.EqualFold(cfg.BankAccounts[i].Name, bank) {
			ba = &cfg.BankAccounts[i]
			break
		}
	}
	if ba == nil && bank != "" {
		return importer.Accounts{}, "", fmt.Errorf("no bank account named %q in %s", bank, config.FileName)
	}
	if ba != nil {
		acct.Bank = orDefault(ba.AccountID, acct.Bank)
		acct.Deposit = orDefault(ba.DepositAccountID, acct.Deposit)
		acct.Withdrawal = orDefault(ba.WithdrawalAccountID, acct.Withdrawal)
		if format == "" {
			format = ba.Importer
		}
	}
	return acct, orDefault(format, "chase"), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
