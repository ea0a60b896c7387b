// Package books is the engine façade: one Book per ledger, owning the chart
// of accounts, the journal and the asset register behind a single lock, and
// persisting every mutation before it becomes visible.
package books

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/depreciation"
	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/logging"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

// Options configure a Book.
type Options struct {
	EntityType    string          // seeds the default chart of an empty store
	CashAccountID string          // default funding account for assets
	Tolerance     decimal.Decimal // zero means journal.DefaultTolerance
	Depreciation  depreciation.Options
	Logger        logrus.FieldLogger
	Clock         func() time.Time
}

// state is one published version of the book. It is never modified after
// publication; writers mutate a clone.
type state struct {
	chart   *accounts.Service
	journal *journal.Journal
	assets  *depreciation.Register
	version int
}

func (s *state) clone() *state {
	chart := s.chart.Clone()
	return &state{
		chart:   chart,
		journal: s.journal.Clone(chart),
		assets:  s.assets.Clone(),
		version: s.version,
	}
}

func (s *state) snapshot() store.Snapshot {
	return store.Snapshot{
		Accounts: s.chart.All(),
		Entries:  s.journal.Entries(),
		Assets:   s.assets.All(),
	}
}

// Book is a ledger session. It is safe for concurrent use: writers are
// serialized, readers share a stable state.
type Book struct {
	mu    sync.RWMutex
	cur   *state
	store store.Store
	opts  Options
	log   logrus.FieldLogger
	cache *cache.Cache
}

// errNoChange aborts a mutation that turned out to be a no-op.
var errNoChange = errors.New("no change")

// Open loads a book from st. Any load or restore failure returns a
// *store.PersistenceError and no book. An empty store is seeded with the
// default chart of accounts.
func Open(ctx context.Context, st store.Store, opts Options) (*Book, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Tolerance.IsZero() {
		opts.Tolerance = journal.DefaultTolerance
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	b := &Book{
		store: st,
		opts:  opts,
		log:   opts.Logger,
		cache: cache.New(10*time.Minute, 20*time.Minute),
	}

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, persistence("loading book", err)
	}

	seed := snap.Empty()
	if seed {
		snap.Accounts = accounts.DefaultChart(opts.EntityType)
	}

	cur, err := b.restore(snap)
	if err != nil {
		return nil, persistence("restoring book", err)
	}

	if seed {
		if err := st.Save(ctx, cur.snapshot()); err != nil {
			return nil, persistence("seeding book", err)
		}
		b.log.WithField("accounts", len(snap.Accounts)).Info("seeded default chart of accounts")
	}

	b.cur = cur
	b.log.WithFields(logrus.Fields{
		"accounts": len(snap.Accounts),
		"entries":  len(snap.Entries),
		"assets":   len(snap.Assets),
	}).Debug("book opened")
	return b, nil
}

func (b *Book) restore(snap store.Snapshot) (*state, error) {
	chart, err := accounts.NewService(snap.Accounts)
	if err != nil {
		return nil, fmt.Errorf("chart of accounts: %w", err)
	}
	j := journal.New(chart, journal.WithTolerance(b.opts.Tolerance), journal.WithClock(b.opts.Clock))
	if err := j.Restore(snap.Entries); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	assets, err := depreciation.NewRegister(snap.Assets)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	return &state{chart: chart, journal: j, assets: assets}, nil
}

func persistence(op string, err error) error {
	if errors.Is(err, store.ErrPersistence) {
		return err
	}
	return &store.PersistenceError{Op: op, Err: err}
}

// Close releases the underlying store.
func (b *Book) Close() error {
	return b.store.Close()
}

// mutate applies fn to a clone of the current state, saves the result and
// publishes it. If fn or the save fails the book is unchanged.
func (b *Book) mutate(ctx context.Context, fn func(next *state) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.cur.clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	if err := b.store.Save(ctx, next.snapshot()); err != nil {
		b.log.WithError(err).Error("save failed, mutation discarded")
		return persistence("saving book", err)
	}
	next.version = b.cur.version + 1
	b.cur = next
	return nil
}

// read runs fn against the current state under a shared lock.
func (b *Book) read(fn func(cur *state)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.cur)
}

// ListAccounts returns active accounts ordered by code.
func (b *Book) ListAccounts() []model.Account {
	var result []model.Account
	b.read(func(cur *state) { result = cur.chart.List() })
	return result
}

// AllAccounts returns every account, archived included.
func (b *Book) AllAccounts() []model.Account {
	var result []model.Account
	b.read(func(cur *state) { result = cur.chart.All() })
	return result
}

// Account returns the account with the given ID.
func (b *Book) Account(accountID string) (model.Account, bool) {
	var acct model.Account
	var ok bool
	b.read(func(cur *state) { acct, ok = cur.chart.Get(accountID) })
	return acct, ok
}

// ResolveAccount finds an account by ID, then by code. Archived accounts
// resolve too.
func (b *Book) ResolveAccount(ref string) (model.Account, bool) {
	var acct model.Account
	var ok bool
	b.read(func(cur *state) {
		if acct, ok = cur.chart.Get(ref); !ok {
			acct, ok = cur.chart.ByCode(ref)
		}
	})
	return acct, ok
}

// AccountsOfType returns the active accounts of one type ordered by code.
func (b *Book) AccountsOfType(accountType model.AccountType) []model.Account {
	var result []model.Account
	b.read(func(cur *state) { result = cur.chart.ByType(accountType) })
	accounts.SortByCode(result)
	return result
}

// AddAccount validates spec and adds the account to the chart. Duplicate
// codes are accepted.
func (b *Book) AddAccount(ctx context.Context, spec AccountSpec) (model.Account, error) {
	acct, err := spec.account()
	if err != nil {
		return model.Account{}, err
	}

	var added model.Account
	err = b.mutate(ctx, func(next *state) error {
		added, err = next.chart.Add(acct)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	b.log.WithFields(logrus.Fields{"account_id": added.ID, "code": added.Code}).Info("account added")
	return added, nil
}

// ArchiveAccount hides an account from listings and blocks new postings to
// it. Its history stays in every report.
func (b *Book) ArchiveAccount(ctx context.Context, accountID string) (model.Account, error) {
	var archived model.Account
	err := b.mutate(ctx, func(next *state) error {
		prev, ok := next.chart.Get(accountID)
		if ok && prev.Archived {
			archived = prev
			return errNoChange
		}
		var err error
		archived, err = next.chart.Archive(accountID)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	b.log.WithField("account_id", accountID).Info("account archived")
	return archived, nil
}

// AppendEntry validates and appends an entry. Errors match
// journal.ErrUnbalanced, journal.ErrUnknownAccount, journal.ErrInvalidEntry
// or store.ErrPersistence.
func (b *Book) AppendEntry(ctx context.Context, entry model.JournalEntry) (model.JournalEntry, error) {
	var appended model.JournalEntry
	err := b.mutate(ctx, func(next *state) error {
		var err error
		appended, err = next.journal.Append(entry)
		return err
	})
	if err != nil {
		b.log.WithError(err).Debug("entry rejected")
		return model.JournalEntry{}, err
	}
	b.log.WithFields(logrus.Fields{
		"entry_id":  appended.ID,
		"lines":     len(appended.Lines),
		"reference": appended.Reference,
	}).Info("entry appended")
	return appended, nil
}

// ListEntries returns copies of all entries ordered by date.
func (b *Book) ListEntries() []model.JournalEntry {
	var result []model.JournalEntry
	b.read(func(cur *state) { result = cur.journal.Entries() })
	return result
}

// Entry returns a copy of one entry.
func (b *Book) Entry(entryID string) (model.JournalEntry, bool) {
	var e model.JournalEntry
	var ok bool
	b.read(func(cur *state) { e, ok = cur.journal.Entry(entryID) })
	return e, ok
}

// HasReference reports whether an entry with the given reference exists.
func (b *Book) HasReference(ref string) bool {
	var ok bool
	b.read(func(cur *state) { ok = cur.journal.HasReference(ref) })
	return ok
}

// Postings returns the ledger projection of the journal.
func (b *Book) Postings() []model.Posting {
	var result []model.Posting
	b.read(func(cur *state) { result = cur.journal.Postings() })
	return result
}
