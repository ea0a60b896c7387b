package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow holds gross debit and credit movement for one account.
type TrialBalanceRow struct {
	AccountID string
	Code      string
	Name      string
	Type      AccountType
	IsContra  bool
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// AccountBalance is one line of a financial statement section.
type AccountBalance struct {
	AccountID string
	Code      string
	Name      string
	Balance   decimal.Decimal // normal-balance value of the account
	Amount    decimal.Decimal // signed contribution to the section total
}

// Section groups statement lines with their total.
type Section struct {
	Lines []AccountBalance
	Total decimal.Decimal
}

// BalanceSheet is a point-in-time statement of financial position.
type BalanceSheet struct {
	AsOf        time.Time
	Assets      Section
	Liabilities Section
	Equity      Section
}

// IncomeStatement reports income and expenses over an inclusive date range.
type IncomeStatement struct {
	Start     time.Time
	End       time.Time
	Income    Section
	Expenses  Section
	NetIncome decimal.Decimal
}
