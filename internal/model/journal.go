package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalLine is one side of a double-entry.
type JournalLine struct {
	ID          string          // "YYYY-MM-NNNx" where x = a,b,c...
	AccountID   string          //nolint:revive // plain field name is clearest
	Description string          //nolint:revive
	Debit       decimal.Decimal // zero if credit side
	Credit      decimal.Decimal // zero if debit side
}

// JournalEntry is a balanced group of lines recorded on one date.
type JournalEntry struct {
	ID        string // "YYYY-MM-NNN"
	Date      time.Time
	Memo      string
	Reference string
	Lines     []JournalLine
	CreatedAt time.Time
}

// Clone returns a deep copy so callers can never reach stored lines.
func (e JournalEntry) Clone() JournalEntry {
	c := e
	if e.Lines != nil {
		c.Lines = make([]JournalLine, len(e.Lines))
		copy(c.Lines, e.Lines)
	}
	return c
}

// Totals returns the summed debits and credits of the entry's lines.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Posting is one journal line flattened with its entry's date and reference.
// Postings are derived from the journal and never stored.
type Posting struct {
	EntryID   string
	LineID    string
	Date      time.Time
	AccountID string
	Reference string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}
