package report

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/model"
)

// Chart is the read side of the chart of accounts.
type Chart interface {
	All() []model.Account
	Get(id string) (model.Account, bool)
}

// TrialBalance sums debits and credits per account for postings dated on or
// before asOf (all postings when asOf is nil). Debits and credits are never
// netted here.
//
// Every active account gets a row. Archived accounts appear only when they
// have postings inside the window. A posting against an account missing from
// the chart fails with *journal.UnknownAccountError.
func TrialBalance(chart Chart, postings []model.Posting, asOf *time.Time) ([]model.TrialBalanceRow, error) {
	var until time.Time
	if asOf != nil {
		until = dateOnly(*asOf)
	}

	rows := make(map[string]*model.TrialBalanceRow)
	for _, a := range chart.All() {
		if !a.Archived {
			rows[a.ID] = newRow(a)
		}
	}

	err := accumulate(chart, postings, rows, func(p model.Posting) bool {
		return asOf == nil || !p.Date.After(until)
	})
	if err != nil {
		return nil, err
	}
	return sortedRows(rows), nil
}

// accumulate adds every kept posting to its account's row, creating rows on
// demand.
func accumulate(chart Chart, postings []model.Posting, rows map[string]*model.TrialBalanceRow, keep func(model.Posting) bool) error {
	for _, p := range postings {
		if !keep(p) {
			continue
		}
		row, ok := rows[p.AccountID]
		if !ok {
			acct, known := chart.Get(p.AccountID)
			if !known {
				return &journal.UnknownAccountError{AccountID: p.AccountID, LineID: p.LineID}
			}
			row = newRow(acct)
			rows[p.AccountID] = row
		}
		row.Debit = row.Debit.Add(p.Debit)
		row.Credit = row.Credit.Add(p.Credit)
	}
	return nil
}

func newRow(a model.Account) *model.TrialBalanceRow {
	return &model.TrialBalanceRow{
		AccountID: a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      a.Type,
		IsContra:  a.IsContra,
		Debit:     decimal.Zero,
		Credit:    decimal.Zero,
	}
}

func sortedRows(rows map[string]*model.TrialBalanceRow) []model.TrialBalanceRow {
	result := make([]model.TrialBalanceRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, *r)
	}
	slices.SortFunc(result, func(a, b model.TrialBalanceRow) int {
		if c := strings.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		return strings.Compare(a.AccountID, b.AccountID)
	})
	return result
}

// Totals returns the summed debit and credit columns of a trial balance.
func Totals(rows []model.TrialBalanceRow) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, r := range rows {
		debit = debit.Add(r.Debit)
		credit = credit.Add(r.Credit)
	}
	return debit, credit
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
