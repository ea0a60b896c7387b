package report

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

var tolerance = journal.DefaultTolerance

func newChart(t *testing.T) *accounts.Service {
	t.Helper()
	svc, err := accounts.NewService(accounts.DefaultChart("llc_single_member"))
	require.NoError(t, err)
	return svc
}

func entry(d time.Time, debitAcct, creditAcct, amount string) model.JournalEntry {
	return model.JournalEntry{
		Date: d,
		Lines: []model.JournalLine{
			{AccountID: debitAcct, Debit: dec(amount)},
			{AccountID: creditAcct, Credit: dec(amount)},
		},
	}
}

func mustAppend(t *testing.T, j *journal.Journal, e model.JournalEntry) {
	t.Helper()
	_, err := j.Append(e)
	require.NoError(t, err)
}

func findRow(rows []model.TrialBalanceRow, id string) (model.TrialBalanceRow, bool) {
	for _, r := range rows {
		if r.AccountID == id {
			return r, true
		}
	}
	return model.TrialBalanceRow{}, false
}

func findLine(s model.Section, id string) (model.AccountBalance, bool) {
	for _, l := range s.Lines {
		if l.AccountID == id {
			return l, true
		}
	}
	return model.AccountBalance{}, false
}

func TestNormalBalance(t *testing.T) {
	tests := []struct {
		typ    model.AccountType
		contra bool
		debit  string
		credit string
		want   string
	}{
		{model.AccountTypeAsset, false, "100", "30", "70"},
		{model.AccountTypeExpense, false, "100", "30", "70"},
		{model.AccountTypeLiability, false, "30", "100", "70"},
		{model.AccountTypeEquity, false, "30", "100", "70"},
		{model.AccountTypeIncome, false, "30", "100", "70"},
		// Contra accounts invert their type's convention.
		{model.AccountTypeAsset, true, "0", "500", "500"},
		{model.AccountTypeEquity, true, "200", "0", "200"},
		{model.AccountTypeIncome, true, "40", "0", "40"},
		// Balances on the wrong side come out negative.
		{model.AccountTypeAsset, false, "10", "30", "-20"},
	}
	for _, tt := range tests {
		got := NormalBalance(tt.typ, tt.contra, dec(tt.debit), dec(tt.credit))
		assert.True(t, got.Equal(dec(tt.want)), "%s contra=%v: got %s want %s", tt.typ, tt.contra, got, tt.want)
	}
}

func TestTrialBalance_Scenario(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 10), accounts.CashID, accounts.ServiceRevenueID, "1000"))

	asOf := date(2024, 1, 31)
	rows, err := TrialBalance(chart, j.Postings(), &asOf)
	require.NoError(t, err)
	assert.Len(t, rows, len(chart.List()), "one row per active account")

	cash, ok := findRow(rows, accounts.CashID)
	require.True(t, ok)
	assert.True(t, cash.Debit.Equal(dec("1000")))
	assert.True(t, cash.Credit.IsZero())

	rev, ok := findRow(rows, accounts.ServiceRevenueID)
	require.True(t, ok)
	assert.True(t, rev.Credit.Equal(dec("1000")))
	assert.True(t, rev.Debit.IsZero())

	debit, credit := Totals(rows)
	assert.True(t, debit.Equal(credit))
}

func TestTrialBalance_AsOfFilter(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 10), accounts.CashID, accounts.ServiceRevenueID, "1000"))
	mustAppend(t, j, entry(date(2024, 2, 10), accounts.CashID, accounts.ServiceRevenueID, "500"))

	// The as-of date is inclusive, whatever the time of day.
	asOf := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	rows, err := TrialBalance(chart, j.Postings(), &asOf)
	require.NoError(t, err)
	cash, _ := findRow(rows, accounts.CashID)
	assert.True(t, cash.Debit.Equal(dec("1500")))

	asOf = date(2024, 2, 9)
	rows, err = TrialBalance(chart, j.Postings(), &asOf)
	require.NoError(t, err)
	cash, _ = findRow(rows, accounts.CashID)
	assert.True(t, cash.Debit.Equal(dec("1000")))

	rows, err = TrialBalance(chart, j.Postings(), nil)
	require.NoError(t, err)
	cash, _ = findRow(rows, accounts.CashID)
	assert.True(t, cash.Debit.Equal(dec("1500")))
}

func TestTrialBalance_GrossNotNetted(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 1), accounts.CashID, accounts.OwnersEquityID, "800"))
	mustAppend(t, j, entry(date(2024, 1, 2), "5020", accounts.CashID, "300"))

	rows, err := TrialBalance(chart, j.Postings(), nil)
	require.NoError(t, err)
	cash, _ := findRow(rows, accounts.CashID)
	assert.True(t, cash.Debit.Equal(dec("800")))
	assert.True(t, cash.Credit.Equal(dec("300")))
}

func TestTrialBalance_ArchivedAccounts(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 5), "5010", accounts.CashID, "50"))

	_, err := chart.Archive("5010")
	require.NoError(t, err)
	_, err = chart.Archive("5030")
	require.NoError(t, err)

	rows, err := TrialBalance(chart, j.Postings(), nil)
	require.NoError(t, err)

	adv, ok := findRow(rows, "5010")
	require.True(t, ok, "archived account with history stays visible")
	assert.True(t, adv.Debit.Equal(dec("50")))

	_, ok = findRow(rows, "5030")
	assert.False(t, ok, "archived account without postings is hidden")

	before := date(2024, 1, 1)
	rows, err = TrialBalance(chart, j.Postings(), &before)
	require.NoError(t, err)
	_, ok = findRow(rows, "5010")
	assert.False(t, ok, "no postings before the archived account was used")
}

func TestTrialBalance_UnknownAccount(t *testing.T) {
	chart := newChart(t)
	postings := []model.Posting{
		{EntryID: "2024-01-001", LineID: "2024-01-001a", Date: date(2024, 1, 1), AccountID: "ghost", Debit: dec("1")},
	}
	_, err := TrialBalance(chart, postings, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrUnknownAccount)

	_, err = BalanceSheet(chart, postings, date(2024, 1, 31), tolerance)
	assert.ErrorIs(t, err, journal.ErrUnknownAccount)

	_, err = IncomeStatement(chart, postings, date(2024, 1, 1), date(2024, 1, 31))
	assert.ErrorIs(t, err, journal.ErrUnknownAccount)
}

func TestTrialBalance_OrderedByCode(t *testing.T) {
	chart := newChart(t)
	rows, err := TrialBalance(chart, nil, nil)
	require.NoError(t, err)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Code, rows[i].Code)
	}
}

func TestIncomeStatement_Scenario(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 10), accounts.CashID, accounts.ServiceRevenueID, "1000"))

	is, err := IncomeStatement(chart, j.Postings(), date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, is.NetIncome.Equal(dec("1000")), "net income: %s", is.NetIncome)
	require.Len(t, is.Income.Lines, 1)
	assert.Equal(t, accounts.ServiceRevenueID, is.Income.Lines[0].AccountID)
	assert.Empty(t, is.Expenses.Lines)
}

func TestIncomeStatement_InclusiveBounds(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2023, 12, 31), accounts.CashID, accounts.ServiceRevenueID, "1"))
	mustAppend(t, j, entry(date(2024, 1, 1), accounts.CashID, accounts.ServiceRevenueID, "10"))
	mustAppend(t, j, entry(date(2024, 1, 31), accounts.CashID, accounts.ProductRevenueID, "100"))
	mustAppend(t, j, entry(date(2024, 1, 15), "5020", accounts.CashID, "30"))
	mustAppend(t, j, entry(date(2024, 2, 1), "5020", accounts.CashID, "1000"))

	is, err := IncomeStatement(chart, j.Postings(), date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	assert.True(t, is.Income.Total.Equal(dec("110")), "income: %s", is.Income.Total)
	assert.True(t, is.Expenses.Total.Equal(dec("30")), "expenses: %s", is.Expenses.Total)
	assert.True(t, is.NetIncome.Equal(dec("80")))

	// Balance-sheet accounts never appear.
	_, ok := findLine(is.Income, accounts.CashID)
	assert.False(t, ok)
	_, ok = findLine(is.Expenses, accounts.CashID)
	assert.False(t, ok)
}

func TestIncomeStatement_ContraIncome(t *testing.T) {
	chart := newChart(t)
	returns, err := chart.Add(model.Account{Code: "4090", Name: "Sales Returns", Type: model.AccountTypeIncome, IsContra: true})
	require.NoError(t, err)

	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 2), accounts.CashID, accounts.ProductRevenueID, "500"))
	mustAppend(t, j, entry(date(2024, 1, 3), returns.ID, accounts.CashID, "50"))

	is, err := IncomeStatement(chart, j.Postings(), date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	line, ok := findLine(is.Income, returns.ID)
	require.True(t, ok)
	assert.True(t, line.Amount.Equal(dec("-50")))
	assert.True(t, line.Balance.Equal(dec("50")))
	assert.True(t, is.NetIncome.Equal(dec("450")))
}

func TestIncomeStatement_StartAfterEnd(t *testing.T) {
	chart := newChart(t)
	_, err := IncomeStatement(chart, nil, date(2024, 2, 1), date(2024, 1, 1))
	assert.ErrorContains(t, err, "period start 2024-02-01 is after end 2024-01-01")
}

func TestBalanceSheet_ContraAndEarnings(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 1), accounts.CashID, accounts.OwnersEquityID, "20000"))
	mustAppend(t, j, entry(date(2024, 1, 2), accounts.EquipmentID, accounts.CashID, "12000"))
	mustAppend(t, j, entry(date(2024, 1, 31), accounts.DepreciationExpenseID, accounts.AccumulatedDepreciationID, "1000"))
	mustAppend(t, j, entry(date(2024, 1, 20), accounts.CashID, accounts.ServiceRevenueID, "3000"))
	mustAppend(t, j, entry(date(2024, 1, 25), accounts.OwnersDrawsID, accounts.CashID, "500"))
	mustAppend(t, j, entry(date(2024, 1, 26), "5030", accounts.CreditCardID, "200"))

	bs, err := BalanceSheet(chart, j.Postings(), date(2024, 1, 31), tolerance)
	require.NoError(t, err)

	accum, ok := findLine(bs.Assets, accounts.AccumulatedDepreciationID)
	require.True(t, ok)
	assert.True(t, accum.Balance.Equal(dec("1000")), "contra balance on its own normal side")
	assert.True(t, accum.Amount.Equal(dec("-1000")), "contra reduces assets")

	draws, ok := findLine(bs.Equity, accounts.OwnersDrawsID)
	require.True(t, ok)
	assert.True(t, draws.Amount.Equal(dec("-500")))

	// Cash 10500 + equipment 12000 - accumulated 1000.
	assert.True(t, bs.Assets.Total.Equal(dec("21500")), "assets: %s", bs.Assets.Total)
	assert.True(t, bs.Liabilities.Total.Equal(dec("200")))

	var earnings model.AccountBalance
	for _, l := range bs.Equity.Lines {
		if l.Name == CurrentEarningsName {
			earnings = l
		}
	}
	// 3000 revenue - 1000 depreciation - 200 supplies.
	assert.True(t, earnings.Amount.Equal(dec("1800")), "earnings: %s", earnings.Amount)
	assert.True(t, bs.Equity.Total.Equal(dec("21300")))

	assert.True(t, bs.Assets.Total.Equal(bs.Liabilities.Total.Add(bs.Equity.Total)))
}

func TestBalanceSheet_DropsZeroLines(t *testing.T) {
	chart := newChart(t)
	j := journal.New(chart)
	mustAppend(t, j, entry(date(2024, 1, 1), "1020", accounts.CashID, "100"))
	mustAppend(t, j, entry(date(2024, 1, 2), accounts.CashID, "1020", "100"))
	mustAppend(t, j, entry(date(2024, 1, 3), accounts.CashID, accounts.OwnersEquityID, "0.00005"))

	bs, err := BalanceSheet(chart, j.Postings(), date(2024, 1, 31), tolerance)
	require.NoError(t, err)
	assert.Empty(t, bs.Assets.Lines)
	assert.Empty(t, bs.Equity.Lines)
	assert.True(t, bs.Assets.Total.IsZero())
}

// randomJournal appends n random balanced entries across 2024.
func randomJournal(t *testing.T, chart *accounts.Service, seed uint64, n int) *journal.Journal {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	accts := chart.List()
	j := journal.New(chart)
	for i := 0; i < n; i++ {
		d := date(2024, 1, 1).AddDate(0, 0, rng.IntN(366))
		lines := 2 + rng.IntN(3)
		e := model.JournalEntry{Date: d}
		total := decimal.Zero
		for k := 0; k < lines-1; k++ {
			amt := decimal.New(int64(1+rng.IntN(100000)), -2)
			total = total.Add(amt)
			e.Lines = append(e.Lines, model.JournalLine{AccountID: accts[rng.IntN(len(accts))].ID, Debit: amt})
		}
		e.Lines = append(e.Lines, model.JournalLine{AccountID: accts[rng.IntN(len(accts))].ID, Credit: total})
		rng.Shuffle(len(e.Lines), func(a, b int) { e.Lines[a], e.Lines[b] = e.Lines[b], e.Lines[a] })
		mustAppend(t, j, e)
	}
	return j
}

func TestProperty_AccountingEquation(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		chart := newChart(t)
		j := randomJournal(t, chart, seed, 60)
		postings := j.Postings()

		for m := 1; m <= 12; m++ {
			asOf := date(2024, m, 1).AddDate(0, 1, -1)
			bs, err := BalanceSheet(chart, postings, asOf, decimal.NewFromInt(-1))
			require.NoError(t, err)
			rhs := bs.Liabilities.Total.Add(bs.Equity.Total)
			assert.True(t, bs.Assets.Total.Equal(rhs), "seed %d as of %s: assets %s != liabilities+equity %s",
				seed, asOf.Format(time.DateOnly), bs.Assets.Total, rhs)
		}
	}
}

func TestProperty_NetIncomeIndependentOfOrder(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		chart := newChart(t)
		j := randomJournal(t, chart, seed, 40)
		entries := j.Entries()
		start, end := date(2024, 3, 1), date(2024, 9, 30)

		want := decimal.Zero
		for _, p := range j.Postings() {
			if p.Date.Before(start) || p.Date.After(end) {
				continue
			}
			acct, _ := chart.Get(p.AccountID)
			switch acct.Type {
			case model.AccountTypeIncome:
				want = want.Add(p.Credit.Sub(p.Debit))
			case model.AccountTypeExpense:
				want = want.Sub(p.Debit.Sub(p.Credit))
			}
		}

		rng := rand.New(rand.NewPCG(seed, 7))
		rng.Shuffle(len(entries), func(a, b int) { entries[a], entries[b] = entries[b], entries[a] })
		is, err := IncomeStatement(chart, journal.Project(entries), start, end)
		require.NoError(t, err)
		assert.True(t, is.NetIncome.Equal(want), "seed %d: %s != %s", seed, is.NetIncome, want)
	}
}
