// Package store persists book snapshots: the chart of accounts, the journal
// and the asset register.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cleared-dev/books/internal/model"
)

// ErrPersistence matches every *PersistenceError.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError reports a failed load or save.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Snapshot is the complete persisted state of a book. Entries are ordered
// by date, ties in append order.
type Snapshot struct {
	Accounts []model.Account
	Entries  []model.JournalEntry
	Assets   []model.AssetRecord
}

// Empty reports whether nothing has been stored yet.
func (s Snapshot) Empty() bool {
	return len(s.Accounts) == 0 && len(s.Entries) == 0 && len(s.Assets) == 0
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{
		Accounts: slices.Clone(s.Accounts),
		Assets:   slices.Clone(s.Assets),
	}
	if s.Entries != nil {
		c.Entries = make([]model.JournalEntry, len(s.Entries))
		for i, e := range s.Entries {
			c.Entries[i] = e.Clone()
		}
	}
	return c
}

// Store loads and saves snapshots.
//
// Save receives the full state after a mutation. Entries and assets are
// append-only, so the SQL stores skip rows they already hold and only
// accounts are updated in place.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFS       = "fs"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for a driver. For fs the DSN is the repository
// root, for sqlite a database path and for postgres a connection string.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case "", DriverFS:
		return NewFS(dsn), nil
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
