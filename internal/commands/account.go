package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/books"
	"github.com/cleared-dev/books/internal/model"
)

func newAccountCommand(repo repoFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountListCommand(repo),
		newAccountAddCommand(repo),
		newAccountArchiveCommand(repo),
	)
	return cmd
}

func newAccountListCommand(repo repoFunc) *cobra.Command {
	var all bool
	var typ string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, repo, func(_ context.Context, s *session) error {
				accts := s.book.ListAccounts()
				switch {
				case typ != "":
					t, err := model.ParseAccountType(typ)
					if err != nil {
						return err
					}
					accts = s.book.AccountsOfType(t)
				case all:
					accts = s.book.AllAccounts()
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tID\tFLAGS")
				for _, a := range accts {
					flags := ""
					if a.IsContra {
						flags = "contra"
					}
					if a.Archived {
						flags += " archived"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Code, a.Name, a.Type, a.ID, flags)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include archived accounts")
	cmd.Flags().StringVar(&typ, "type", "", "only active accounts of this type")
	return cmd
}

func newAccountAddCommand(repo repoFunc) *cobra.Command {
	var spec books.AccountSpec

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				acct, err := s.book.AddAccount(ctx, spec)
				if err != nil {
					return err
				}
				if err := s.record(ctx, auditlog.ActionAccountAdd, acct.ID, acct.Code+" "+acct.Name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added account %s %s (%s)\n", acct.Code, acct.Name, acct.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&spec.ID, "id", "", "account ID (default: generated)")
	cmd.Flags().StringVar(&spec.Code, "code", "", "account code")
	cmd.Flags().StringVar(&spec.Name, "name", "", "account name")
	cmd.Flags().StringVar(&spec.Type, "type", "", "asset, liability, equity, income or expense")
	cmd.Flags().BoolVar(&spec.IsContra, "contra", false, "contra account")
	cmd.Flags().StringVar(&spec.Description, "description", "", "description")
	return cmd
}

func newAccountArchiveCommand(repo repoFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <account>",
		Short: "Archive an account so it accepts no new entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, repo, func(ctx context.Context, s *session) error {
				acct, err := s.book.ArchiveAccount(ctx, accountRef(s.book, args[0]))
				if err != nil {
					return err
				}
				if err := s.record(ctx, auditlog.ActionAccountArchive, acct.ID, acct.Code+" "+acct.Name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived account %s %s\n", acct.Code, acct.Name)
				return nil
			})
		},
	}
}

// accountRef maps an account ID or code to the account ID. Unknown references
// pass through unchanged so the book reports them.
func accountRef(b *books.Book, ref string) string {
	if ref == "" {
		return ""
	}
	if acct, ok := b.ResolveAccount(ref); ok {
		return acct.ID
	}
	return ref
}
