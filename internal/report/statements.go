package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// CurrentEarningsName labels the balance sheet line carrying income minus
// expenses that have not been closed into equity.
const CurrentEarningsName = "Current Earnings"

// BalanceSheet builds the statement of financial position as of a date.
// Lines whose amount is within tolerance of zero are dropped. The builder
// does not check Assets = Liabilities + Equity: a mismatch means unbalanced
// entries reached the journal.
func BalanceSheet(chart Chart, postings []model.Posting, asOf time.Time, tolerance decimal.Decimal) (model.BalanceSheet, error) {
	rows, err := TrialBalance(chart, postings, &asOf)
	if err != nil {
		return model.BalanceSheet{}, err
	}

	bs := model.BalanceSheet{AsOf: dateOnly(asOf)}
	earnings := decimal.Zero
	for _, row := range rows {
		amount := sectionAmount(row)
		switch row.Type {
		case model.AccountTypeAsset:
			addLine(&bs.Assets, row, amount, tolerance)
		case model.AccountTypeLiability:
			addLine(&bs.Liabilities, row, amount, tolerance)
		case model.AccountTypeEquity:
			addLine(&bs.Equity, row, amount, tolerance)
		case model.AccountTypeIncome:
			earnings = earnings.Add(amount)
		case model.AccountTypeExpense:
			earnings = earnings.Sub(amount)
		}
	}
	if earnings.Abs().GreaterThan(tolerance) {
		bs.Equity.Lines = append(bs.Equity.Lines, model.AccountBalance{
			Name:    CurrentEarningsName,
			Balance: earnings,
			Amount:  earnings,
		})
		bs.Equity.Total = bs.Equity.Total.Add(earnings)
	}
	return bs, nil
}

// IncomeStatement reports income and expenses for postings dated within
// [start, end], both ends inclusive. Accounts without postings in the period
// are left out.
func IncomeStatement(chart Chart, postings []model.Posting, start, end time.Time) (model.IncomeStatement, error) {
	from, to := dateOnly(start), dateOnly(end)
	if from.After(to) {
		return model.IncomeStatement{}, fmt.Errorf("period start %s is after end %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	rows := make(map[string]*model.TrialBalanceRow)
	err := accumulate(chart, postings, rows, func(p model.Posting) bool {
		return !p.Date.Before(from) && !p.Date.After(to)
	})
	if err != nil {
		return model.IncomeStatement{}, err
	}

	is := model.IncomeStatement{Start: from, End: to}
	for _, row := range sortedRows(rows) {
		switch row.Type {
		case model.AccountTypeIncome:
			addLine(&is.Income, row, row.Credit.Sub(row.Debit), decimal.NewFromInt(-1))
		case model.AccountTypeExpense:
			addLine(&is.Expenses, row, row.Debit.Sub(row.Credit), decimal.NewFromInt(-1))
		}
	}
	is.NetIncome = is.Income.Total.Sub(is.Expenses.Total)
	return is, nil
}

// addLine appends a statement line unless |amount| <= tolerance. A negative
// tolerance keeps every line.
func addLine(s *model.Section, row model.TrialBalanceRow, amount, tolerance decimal.Decimal) {
	if !tolerance.IsNegative() && amount.Abs().LessThanOrEqual(tolerance) {
		return
	}
	s.Lines = append(s.Lines, model.AccountBalance{
		AccountID: row.AccountID,
		Code:      row.Code,
		Name:      row.Name,
		Balance:   NormalBalance(row.Type, row.IsContra, row.Debit, row.Credit),
		Amount:    amount,
	})
	s.Total = s.Total.Add(amount)
}
