package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/depreciation"
	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/model"
)

// Paths inside an FS repository.
const (
	AccountsFile = "accounts/chart-of-accounts.csv"
	AssetsFile   = "assets/assets.csv"
	JournalFile  = "journal.csv"
)

// FS stores a book as CSV files under a repository root:
//
//	accounts/chart-of-accounts.csv
//	YYYY/MM/journal.csv
//	assets/assets.csv
type FS struct {
	root string
}

// NewFS returns a store rooted at dir.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

// Root returns the repository root.
func (s *FS) Root() string { return s.root }

func (s *FS) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	snap.Accounts, err = readCSV(filepath.Join(s.root, AccountsFile), accounts.ReadAccounts)
	if err != nil {
		return Snapshot{}, fail("loading accounts", err)
	}
	snap.Assets, err = readCSV(filepath.Join(s.root, AssetsFile), depreciation.ReadAssets)
	if err != nil {
		return Snapshot{}, fail("loading assets", err)
	}

	months, err := s.monthFiles()
	if err != nil {
		return Snapshot{}, fail("loading journal", err)
	}
	for _, path := range months {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, fail("loading journal", err)
		}
		entries, err := readCSV(path, journal.ReadEntries)
		if err != nil {
			return Snapshot{}, fail("loading journal", err)
		}
		snap.Entries = append(snap.Entries, entries...)
	}
	return snap, nil
}

// Save rewrites every file from the snapshot in two phases: every file is
// first written to a temp file beside its target, and only when all of them
// are written are they renamed into place. A failed write leaves the
// previous state untouched.
func (s *FS) Save(ctx context.Context, snap Snapshot) error {
	var st staging
	defer st.discard()

	err := st.stage(filepath.Join(s.root, AccountsFile), func(w io.Writer) error {
		return accounts.WriteAccounts(w, snap.Accounts)
	})
	if err != nil {
		return fail("saving accounts", err)
	}

	if len(snap.Assets) > 0 {
		err = st.stage(filepath.Join(s.root, AssetsFile), func(w io.Writer) error {
			return depreciation.WriteAssets(w, snap.Assets)
		})
		if err != nil {
			return fail("saving assets", err)
		}
	}

	byMonth := make(map[string][]model.JournalEntry)
	var order []string
	for _, e := range snap.Entries {
		p := s.monthPath(e.Date.Year(), int(e.Date.Month()))
		if _, ok := byMonth[p]; !ok {
			order = append(order, p)
		}
		byMonth[p] = append(byMonth[p], e)
	}
	for _, p := range order {
		if err := ctx.Err(); err != nil {
			return fail("saving journal", err)
		}
		entries := byMonth[p]
		if err := st.stage(p, func(w io.Writer) error { return journal.WriteEntries(w, entries) }); err != nil {
			return fail("saving journal", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fail("saving journal", err)
	}
	// Journal files are staged last so they are renamed last: an
	// interrupted commit never leaves an entry without its asset record.
	if err := st.commit(); err != nil {
		return fail("committing", err)
	}
	return nil
}

func (s *FS) Close() error { return nil }

func (s *FS) monthPath(year, month int) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), JournalFile)
}

// monthFiles lists YYYY/MM/journal.csv files in chronological order.
func (s *FS) monthFiles() ([]string, error) {
	years, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, y := range years {
		if !y.IsDir() || !isNumber(y.Name(), 4) {
			continue
		}
		months, err := os.ReadDir(filepath.Join(s.root, y.Name()))
		if err != nil {
			return nil, err
		}
		for _, m := range months {
			if !m.IsDir() || !isNumber(m.Name(), 2) {
				continue
			}
			p := filepath.Join(s.root, y.Name(), m.Name(), JournalFile)
			if _, err := os.Stat(p); err == nil {
				paths = append(paths, p)
			}
		}
	}
	slices.Sort(paths)
	return paths, nil
}

func isNumber(s string, width int) bool {
	if len(s) != width {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func readCSV[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	items, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return items, nil
}

type stagedFile struct {
	tmp, path string
}

// staging holds temp files waiting to be renamed over their targets.
type staging struct {
	files []stagedFile
}

// stage writes a temp file next to path.
func (st *staging) stage(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	st.files = append(st.files, stagedFile{tmp: tmp.Name(), path: path})

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return os.Chmod(tmp.Name(), 0o644)
}

// commit renames staged files into place in staging order.
func (st *staging) commit() error {
	for i, f := range st.files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			return fmt.Errorf("renaming %s: %w", f.path, err)
		}
		st.files[i].tmp = ""
	}
	return nil
}

// discard removes temp files that were not committed.
func (st *staging) discard() {
	for _, f := range st.files {
		if f.tmp != "" {
			os.Remove(f.tmp)
		}
	}
}
