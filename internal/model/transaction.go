package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a parsed bank CSV row waiting to be journaled.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = money out, positive = money in
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
}

// IsDeposit reports whether the transaction brings money into the bank account.
func (t BankTransaction) IsDeposit() bool {
	return t.Amount.IsPositive()
}
