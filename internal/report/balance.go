package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// NormalBalance resolves gross debit and credit totals into the account's
// balance on its normal side. Asset and expense accounts are debit-normal,
// the rest credit-normal; a contra account inverts its type's convention.
func NormalBalance(typ model.AccountType, isContra bool, debit, credit decimal.Decimal) decimal.Decimal {
	net := debit.Sub(credit)
	bal := net
	if !typ.DebitNormal() {
		bal = net.Neg()
	}
	if isContra {
		bal = bal.Neg()
	}
	return bal
}

// sectionAmount is the row's signed contribution to its type's section:
// the normal balance, negated again for contra accounts so that they reduce
// the section total.
func sectionAmount(row model.TrialBalanceRow) decimal.Decimal {
	bal := NormalBalance(row.Type, row.IsContra, row.Debit, row.Credit)
	if row.IsContra {
		return bal.Neg()
	}
	return bal
}
