package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string
	var driver string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new books repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name, entityType)
			cfg.Storage.Driver = driver
			cfg.Git.AutoCommit = !noGit
			return runInit(cmd.Context(), absDir, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "llc_single_member", "entity type")
	cmd.Flags().StringVar(&driver, "store", "fs", "storage driver: fs, sqlite or postgres")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInit(ctx context.Context, dir string, cfg *config.Config, out, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dirs := []string{
		"accounts",
		"assets",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := ".env\nbooks.db*\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Opening seeds the chart of accounts into the configured store.
	s, err := openSession(ctx, dir, stderr)
	if err != nil {
		return err
	}
	n := len(s.book.ListAccounts())
	if err := s.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	audit := auditlog.New(dir, "cli")
	if err := audit.Record(auditlog.ActionInit, "", fmt.Sprintf("%s (%s), %d accounts", cfg.Business.Name, cfg.Business.EntityType, n)); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	if !cfg.Git.AutoCommit {
		fmt.Fprintf(out, "Initialized books at %s\n", dir)
		return nil
	}

	if err := gitops.Init(ctx, dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitAll(ctx, dir, "init: "+cfg.Business.Name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized books at %s (%s)\n", dir, hash)
	return nil
}
