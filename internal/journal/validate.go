package journal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// DefaultTolerance is the largest debit/credit difference accepted as balanced.
var DefaultTolerance = decimal.New(1, -4)

// AccountChecker resolves account IDs against the chart of accounts.
type AccountChecker interface {
	Get(id string) (model.Account, bool)
}

// Validate checks an entry before it is appended. All violations are
// returned joined; errors.Is matches ErrUnbalanced, ErrUnknownAccount and
// ErrInvalidEntry.
func Validate(entry model.JournalEntry, accounts AccountChecker, tolerance decimal.Decimal) error {
	return validate(entry, accounts, tolerance, false)
}

// validate backs Validate. Restored entries may reference accounts archived
// after they were posted, so allowArchived skips that check.
func validate(entry model.JournalEntry, accounts AccountChecker, tolerance decimal.Decimal, allowArchived bool) error {
	var errs []error
	invalid := func(rule, format string, args ...any) {
		errs = append(errs, &ValidationError{Rule: rule, EntryID: entry.ID, Description: fmt.Sprintf(format, args...)})
	}

	if entry.Date.IsZero() {
		invalid("date", "entry has no date")
	}
	if len(entry.Lines) < 2 {
		invalid("lines", "entry needs at least two lines, got %d", len(entry.Lines))
	}

	for i, line := range entry.Lines {
		ref := line.ID
		if ref == "" {
			ref = fmt.Sprintf("#%d", i+1)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			invalid("amount", "line %s has a negative amount", ref)
		}
		acct, ok := accounts.Get(line.AccountID)
		switch {
		case !ok:
			errs = append(errs, &UnknownAccountError{AccountID: line.AccountID, LineID: ref})
		case acct.Archived && !allowArchived:
			invalid("archived", "line %s posts to archived account %s", ref, line.AccountID)
		}
	}

	debit, credit := entry.Totals()
	if debit.IsZero() && credit.IsZero() && len(entry.Lines) > 0 {
		invalid("amount", "entry moves no money")
	}
	if debit.Sub(credit).Abs().GreaterThan(tolerance) {
		errs = append(errs, &UnbalancedEntryError{EntryID: entry.ID, Debit: debit, Credit: credit, Tolerance: tolerance})
	}

	return errors.Join(errs...)
}
