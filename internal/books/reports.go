package books

import (
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/report"
)

// TrialBalance returns per-account debit and credit totals as of a date,
// or over the whole journal when asOf is nil. Results are memoized per book
// version.
func (b *Book) TrialBalance(asOf *time.Time) ([]model.TrialBalanceRow, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	key := fmt.Sprintf("tb|%d|all", b.cur.version)
	if asOf != nil {
		key = fmt.Sprintf("tb|%d|%s", b.cur.version, asOf.Format(time.DateOnly))
	}
	if rows, ok := b.cache.Get(key); ok {
		return slices.Clone(rows.([]model.TrialBalanceRow)), nil
	}

	rows, err := report.TrialBalance(b.cur.chart, b.cur.journal.Postings(), asOf)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, rows, cache.DefaultExpiration)
	return slices.Clone(rows), nil
}

// BalanceSheet builds the balance sheet as of a date. Lines within the
// journal tolerance of zero are omitted.
func (b *Book) BalanceSheet(asOf time.Time) (model.BalanceSheet, error) {
	var bs model.BalanceSheet
	var err error
	b.read(func(cur *state) {
		bs, err = report.BalanceSheet(cur.chart, cur.journal.Postings(), asOf, cur.journal.Tolerance())
	})
	return bs, err
}

// IncomeStatement reports income and expenses between start and end,
// both inclusive.
func (b *Book) IncomeStatement(start, end time.Time) (model.IncomeStatement, error) {
	var is model.IncomeStatement
	var err error
	b.read(func(cur *state) {
		is, err = report.IncomeStatement(cur.chart, cur.journal.Postings(), start, end)
	})
	return is, err
}
