package journal

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// Journal is the append-only store of balanced entries.
//
// Entries live in an arena indexed by insertion order; a red-black tree keyed
// by (date, position) gives the date order. Nothing outside the package ever
// holds a reference into the arena: every read returns copies.
type Journal struct {
	accounts  AccountChecker
	tolerance decimal.Decimal
	now       func() time.Time

	entries []model.JournalEntry
	byDate  *redblacktree.Tree
	byID    map[string]int
	lastSeq map[string]int // "YYYY-MM" -> highest sequence used

	mu       sync.Mutex
	postings []model.Posting // memoized projection, nil when stale
}

// Option configures a Journal.
type Option func(*Journal)

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol decimal.Decimal) Option {
	return func(j *Journal) { j.tolerance = tol }
}

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

type dateKey struct {
	date time.Time
	pos  int
}

func compareDateKeys(a, b interface{}) int {
	ka, kb := a.(dateKey), b.(dateKey)
	switch {
	case ka.date.Before(kb.date):
		return -1
	case ka.date.After(kb.date):
		return 1
	case ka.pos < kb.pos:
		return -1
	case ka.pos > kb.pos:
		return 1
	}
	return 0
}

// New creates an empty Journal validating accounts against the given chart.
func New(accounts AccountChecker, opts ...Option) *Journal {
	j := &Journal{
		accounts:  accounts,
		tolerance: DefaultTolerance,
		now:       time.Now,
		byDate:    redblacktree.NewWith(compareDateKeys),
		byID:      make(map[string]int),
		lastSeq:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Clone returns an independent journal bound to another chart. Stored entries
// are shared: they are never modified after append.
func (j *Journal) Clone(accounts AccountChecker) *Journal {
	c := &Journal{
		accounts:  accounts,
		tolerance: j.tolerance,
		now:       j.now,
		entries:   slices.Clip(slices.Clone(j.entries)),
		byDate:    redblacktree.NewWith(compareDateKeys),
		byID:      make(map[string]int, len(j.byID)),
		lastSeq:   make(map[string]int, len(j.lastSeq)),
	}
	for k, v := range j.byID {
		c.byID[k] = v
	}
	for k, v := range j.lastSeq {
		c.lastSeq[k] = v
	}
	it := j.byDate.Iterator()
	for it.Next() {
		c.byDate.Put(it.Key(), it.Value())
	}
	return c
}

// Tolerance returns the balance tolerance in use.
func (j *Journal) Tolerance() decimal.Decimal {
	return j.tolerance
}

// Append validates an entry, assigns its IDs and creation time, and stores a
// copy. The returned entry is another copy. A rejected entry leaves the
// journal unchanged.
func (j *Journal) Append(entry model.JournalEntry) (model.JournalEntry, error) {
	e := entry.Clone()
	e.ID = ""
	e.Date = dateOnly(e.Date)
	if err := Validate(e, j.accounts, j.tolerance); err != nil {
		return model.JournalEntry{}, err
	}

	month := monthKey(e.Date)
	seq := j.lastSeq[month] + 1
	e.ID = id.EntryIDFor(e.Date, seq)
	for i := range e.Lines {
		e.Lines[i].ID = id.FormatLineID(e.ID, i)
	}
	e.CreatedAt = j.now().UTC()

	j.lastSeq[month] = seq
	j.insert(e)
	return e.Clone(), nil
}

// Restore loads previously persisted entries, keeping their IDs.
// Every entry is re-validated; the first failure aborts the restore.
func (j *Journal) Restore(entries []model.JournalEntry) error {
	for _, entry := range entries {
		e := entry.Clone()
		e.Date = dateOnly(e.Date)
		year, month, seq, err := id.ParseEntryID(e.ID)
		if err != nil {
			return fmt.Errorf("restoring entry: %w", err)
		}
		if _, dup := j.byID[e.ID]; dup {
			return &ValidationError{Rule: "id", EntryID: e.ID, Description: "duplicate entry id"}
		}
		if err := validate(e, j.accounts, j.tolerance, true); err != nil {
			return fmt.Errorf("restoring entry %s: %w", e.ID, err)
		}
		key := fmt.Sprintf("%04d-%02d", year, month)
		if seq > j.lastSeq[key] {
			j.lastSeq[key] = seq
		}
		j.insert(e)
	}
	return nil
}

func (j *Journal) insert(e model.JournalEntry) {
	pos := len(j.entries)
	j.entries = append(j.entries, e)
	j.byID[e.ID] = pos
	j.byDate.Put(dateKey{date: e.Date, pos: pos}, pos)

	j.mu.Lock()
	j.postings = nil
	j.mu.Unlock()
}

// Entries returns copies of all entries ordered by date, ties in append order.
func (j *Journal) Entries() []model.JournalEntry {
	result := make([]model.JournalEntry, 0, len(j.entries))
	it := j.byDate.Iterator()
	for it.Next() {
		result = append(result, j.entries[it.Value().(int)].Clone())
	}
	return result
}

// Entry returns a copy of the entry with the given ID.
func (j *Journal) Entry(entryID string) (model.JournalEntry, bool) {
	pos, ok := j.byID[entryID]
	if !ok {
		return model.JournalEntry{}, false
	}
	return j.entries[pos].Clone(), true
}

// HasReference reports whether any entry carries the given reference.
func (j *Journal) HasReference(ref string) bool {
	for _, e := range j.entries {
		if e.Reference == ref {
			return true
		}
	}
	return false
}

// Version is the number of appended entries. It changes on every append.
func (j *Journal) Version() int {
	return len(j.entries)
}

// Postings returns Project of the stored entries. The result is memoized
// until the next append.
func (j *Journal) Postings() []model.Posting {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.postings == nil {
		j.postings = Project(j.entries)
	}
	return slices.Clone(j.postings)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
