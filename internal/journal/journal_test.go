package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/model"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestJournal(accts AccountChecker) *Journal {
	return New(accts, WithClock(func() time.Time { return fixedNow }))
}

func TestAppend_AssignsIDs(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))

	got, err := j.Append(balancedEntry(date(2024, 1, 10), "1010", "4010", "1000"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-001", got.ID)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "2024-01-001a", got.Lines[0].ID)
	assert.Equal(t, "2024-01-001b", got.Lines[1].ID)
	assert.Equal(t, fixedNow, got.CreatedAt)

	got, err = j.Append(balancedEntry(date(2024, 1, 20), "1010", "4010", "5"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-002", got.ID)

	got, err = j.Append(balancedEntry(date(2024, 2, 1), "1010", "4010", "5"))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-001", got.ID, "sequence restarts each month")
}

func TestAppend_IgnoresCallerIDs(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	e := balancedEntry(date(2024, 1, 10), "1010", "4010", "1")
	e.ID = "2024-01-999"
	e.Lines[0].ID = "forged"

	got, err := j.Append(e)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-001", got.ID)
	assert.Equal(t, "2024-01-001a", got.Lines[0].ID)
}

func TestAppend_NormalizesDate(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	loc := time.FixedZone("UTC+9", 9*3600)
	got, err := j.Append(balancedEntry(time.Date(2024, 1, 10, 23, 30, 0, 0, loc), "1010", "4010", "1"))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 10), got.Date)
}

func TestAppend_RejectsUnbalancedWithoutMutation(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	_, err := j.Append(balancedEntry(date(2024, 1, 10), "1010", "4010", "10"))
	require.NoError(t, err)
	before := j.Postings()

	bad := balancedEntry(date(2024, 1, 11), "1010", "4010", "100")
	bad.Lines[1].Credit = dec("99.999")
	_, err = j.Append(bad)
	require.ErrorIs(t, err, ErrUnbalanced)

	assert.Equal(t, 1, j.Version())
	assert.Len(t, j.Entries(), 1)
	assert.Equal(t, before, j.Postings())

	// The failed append must not consume a sequence number.
	got, err := j.Append(balancedEntry(date(2024, 1, 12), "1010", "4010", "1"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-002", got.ID)
}

func TestAppend_ReturnsCopy(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	in := balancedEntry(date(2024, 1, 10), "1010", "4010", "10")

	got, err := j.Append(in)
	require.NoError(t, err)

	// Mutating either the input or the result leaves the journal untouched.
	in.Lines[0].Debit = dec("999")
	got.Lines[0].Debit = dec("999")
	got.Memo = "changed"

	stored, ok := j.Entry(got.ID)
	require.True(t, ok)
	assert.True(t, stored.Lines[0].Debit.Equal(dec("10")))
	assert.Equal(t, "test entry", stored.Memo)

	listed := j.Entries()
	listed[0].Lines[0].AccountID = "hacked"
	stored, _ = j.Entry(got.ID)
	assert.Equal(t, "1010", stored.Lines[0].AccountID)
}

func TestEntries_OrderedByDateThenInsertion(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	mustAppend := func(d time.Time, memo string) {
		e := balancedEntry(d, "1010", "4010", "1")
		e.Memo = memo
		_, err := j.Append(e)
		require.NoError(t, err)
	}
	mustAppend(date(2024, 3, 1), "march")
	mustAppend(date(2024, 1, 5), "jan-first")
	mustAppend(date(2024, 2, 1), "feb")
	mustAppend(date(2024, 1, 5), "jan-second")

	var memos []string
	for _, e := range j.Entries() {
		memos = append(memos, e.Memo)
	}
	assert.Equal(t, []string{"jan-first", "jan-second", "feb", "march"}, memos)
}

func TestPostings_MemoInvalidatedOnAppend(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	_, err := j.Append(balancedEntry(date(2024, 1, 10), "1010", "4010", "10"))
	require.NoError(t, err)
	require.Len(t, j.Postings(), 2)

	_, err = j.Append(balancedEntry(date(2024, 1, 1), "1010", "4010", "5"))
	require.NoError(t, err)

	p := j.Postings()
	require.Len(t, p, 4)
	assert.Equal(t, date(2024, 1, 1), p[0].Date, "earlier entry sorts first")
	assert.Equal(t, "2024-01-002a", p[0].LineID)
}

func TestPostings_MatchesProjectOfEntries(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	for _, d := range []time.Time{date(2024, 3, 5), date(2024, 1, 9), date(2024, 3, 5), date(2024, 2, 1)} {
		_, err := j.Append(balancedEntry(d, "1010", "4010", "1"))
		require.NoError(t, err)
	}
	assert.Equal(t, Project(j.Entries()), j.Postings())
}

func TestRestore(t *testing.T) {
	accts := newMockAccounts("1010", "4010")
	src := newTestJournal(accts)
	for _, d := range []time.Time{date(2024, 1, 10), date(2024, 1, 12), date(2024, 2, 1)} {
		_, err := src.Append(balancedEntry(d, "1010", "4010", "10"))
		require.NoError(t, err)
	}

	dst := newTestJournal(accts)
	require.NoError(t, dst.Restore(src.Entries()))
	assert.Equal(t, src.Entries(), dst.Entries())

	got, err := dst.Append(balancedEntry(date(2024, 1, 30), "1010", "4010", "1"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-003", got.ID, "restore must resume the month sequence")
}

func TestRestore_ArchivedAccount(t *testing.T) {
	accts := newMockAccounts("1010", "4010")
	src := newTestJournal(accts)
	_, err := src.Append(balancedEntry(date(2024, 1, 10), "1010", "4010", "10"))
	require.NoError(t, err)

	accts.archive("4010")
	dst := newTestJournal(accts)
	assert.NoError(t, dst.Restore(src.Entries()))
}

func TestRestore_Rejects(t *testing.T) {
	accts := newMockAccounts("1010", "4010")
	good := balancedEntry(date(2024, 1, 10), "1010", "4010", "10")
	good.ID = "2024-01-001"

	unbalanced := good.Clone()
	unbalanced.Lines[1].Credit = dec("1")

	noID := good.Clone()
	noID.ID = ""

	tests := []struct {
		name    string
		entries []model.JournalEntry
	}{
		{"unbalanced", []model.JournalEntry{unbalanced}},
		{"missing id", []model.JournalEntry{noID}},
		{"duplicate id", []model.JournalEntry{good, good}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, newTestJournal(accts).Restore(tt.entries))
		})
	}
}

func TestClone_Independent(t *testing.T) {
	accts := newMockAccounts("1010", "4010")
	j := newTestJournal(accts)
	_, err := j.Append(balancedEntry(date(2024, 1, 10), "1010", "4010", "10"))
	require.NoError(t, err)

	c := j.Clone(accts)
	got, err := c.Append(balancedEntry(date(2024, 1, 11), "1010", "4010", "20"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-002", got.ID)

	assert.Equal(t, 1, j.Version())
	assert.Equal(t, 2, c.Version())

	// Appending to the original after cloning must not leak into the clone.
	_, err = j.Append(balancedEntry(date(2024, 1, 12), "1010", "4010", "30"))
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
	e, ok := c.Entry("2024-01-002")
	require.True(t, ok)
	assert.True(t, e.Lines[0].Debit.Equal(dec("20")))
}

func TestHasReference(t *testing.T) {
	j := newTestJournal(newMockAccounts("1010", "4010"))
	e := balancedEntry(date(2024, 1, 10), "1010", "4010", "10")
	e.Reference = "chase_20240110_ACME"
	_, err := j.Append(e)
	require.NoError(t, err)

	assert.True(t, j.HasReference("chase_20240110_ACME"))
	assert.False(t, j.HasReference("other"))
}

func TestWithTolerance(t *testing.T) {
	j := New(newMockAccounts("1010", "4010"), WithTolerance(dec("0.01")))
	e := balancedEntry(date(2024, 1, 10), "1010", "4010", "100")
	e.Lines[1].Credit = dec("99.995")
	_, err := j.Append(e)
	assert.NoError(t, err)
	assert.True(t, j.Tolerance().Equal(dec("0.01")))
}
