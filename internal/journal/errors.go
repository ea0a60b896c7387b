package journal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnbalanced matches UnbalancedEntryError.
	ErrUnbalanced = errors.New("unbalanced entry")
	// ErrUnknownAccount matches UnknownAccountError.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInvalidEntry matches ValidationError.
	ErrInvalidEntry = errors.New("invalid entry")
)

// UnbalancedEntryError is returned when an entry's debits and credits differ
// by more than the journal tolerance.
type UnbalancedEntryError struct {
	EntryID   string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Tolerance decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry %s: debits (%s) != credits (%s) within %s",
		describe(e.EntryID), e.Debit.String(), e.Credit.String(), e.Tolerance.String())
}

func (e *UnbalancedEntryError) Is(target error) bool { return target == ErrUnbalanced }

// UnknownAccountError is returned when a line or posting references an
// account that is not in the chart.
type UnknownAccountError struct {
	AccountID string
	LineID    string
}

func (e *UnknownAccountError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("line %s: unknown account %q", e.LineID, e.AccountID)
	}
	return fmt.Sprintf("unknown account %q", e.AccountID)
}

func (e *UnknownAccountError) Is(target error) bool { return target == ErrUnknownAccount }

// ValidationError describes a structural problem with an entry.
type ValidationError struct {
	Rule        string
	EntryID     string
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, describe(e.EntryID), e.Description)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidEntry }

func describe(entryID string) string {
	if entryID == "" {
		return "(new)"
	}
	return entryID
}
