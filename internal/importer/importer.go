// Package importer turns bank CSV exports into balanced journal entries.
package importer

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// Parser converts a bank CSV file into BankTransactions.
type Parser interface {
	Parse(r io.Reader) ([]model.BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	return r
}

var strict = bluemonday.StrictPolicy()

// Clean strips markup from a bank description and collapses whitespace.
// Bank exports occasionally carry HTML fragments copied from merchant names.
func Clean(desc string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(desc))), " ")
}

// Accounts names the accounts a bank transaction is posted between.
type Accounts struct {
	Bank       string // the bank account itself
	Deposit    string // credited for money in
	Withdrawal string // debited for money out
}

// ToEntry converts a transaction into a two-line entry between the bank
// account and the offset account for its direction.
func ToEntry(txn model.BankTransaction, accts Accounts) model.JournalEntry {
	amt := txn.Amount.Abs()
	bank := model.JournalLine{AccountID: accts.Bank, Description: txn.Description}
	var offset model.JournalLine
	if txn.IsDeposit() {
		bank.Debit = amt
		offset = model.JournalLine{AccountID: accts.Deposit, Description: txn.Description, Credit: amt}
		return model.JournalEntry{
			Date:      txn.Date,
			Memo:      txn.Description,
			Reference: txn.Reference,
			Lines:     []model.JournalLine{bank, offset},
		}
	}
	bank.Credit = amt
	offset = model.JournalLine{AccountID: accts.Withdrawal, Description: txn.Description, Debit: amt}
	return model.JournalEntry{
		Date:      txn.Date,
		Memo:      txn.Description,
		Reference: txn.Reference,
		Lines:     []model.JournalLine{offset, bank},
	}
}

// Journaler is the part of a book the importer posts to.
type Journaler interface {
	HasReference(ref string) bool
	AppendEntry(ctx context.Context, entry model.JournalEntry) (model.JournalEntry, error)
}

// Result reports what an import did.
type Result struct {
	Posted  []model.JournalEntry
	Skipped []model.BankTransaction // reference already in the journal
}

// Post appends one entry per transaction, skipping transactions whose
// reference is already journaled. It stops at the first failed append;
// entries posted before the failure stay posted.
func Post(ctx context.Context, j Journaler, txns []model.BankTransaction, accts Accounts, log logrus.FieldLogger) (Result, error) {
	var res Result
	for _, txn := range txns {
		if j.HasReference(txn.Reference) {
			res.Skipped = append(res.Skipped, txn)
			log.WithField("reference", txn.Reference).Debug("skipping duplicate bank transaction")
			continue
		}
		posted, err := j.AppendEntry(ctx, ToEntry(txn, accts))
		if err != nil {
			return res, fmt.Errorf("posting %s: %w", txn.Reference, err)
		}
		res.Posted = append(res.Posted, posted)
		log.WithFields(logrus.Fields{
			"entry_id":  posted.ID,
			"reference": txn.Reference,
			"amount":    txn.Amount.StringFixed(2),
		}).Info("imported bank transaction")
	}
	return res, nil
}

// ImportFile parses path with the named format and posts the result.
func ImportFile(ctx context.Context, j Journaler, reg *Registry, format, path string, accts Accounts, log logrus.FieldLogger) (Result, error) {
	p := reg.Get(format)
	if p == nil {
		return Result{}, fmt.Errorf("unknown import format %q (have %s)", format, strings.Join(reg.Formats(), ", "))
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return Post(ctx, j, txns, accts, log.WithFields(logrus.Fields{
		"format": p.Format(),
		"file":   filepath.Base(path),
		"batch":  id.New(),
	}))
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
