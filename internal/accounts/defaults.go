package accounts

import "github.com/cleared-dev/books/internal/model"

// Well-known account IDs of the default chart.
const (
	CashID                    = "1010"
	ReceivablesID             = "1100"
	EquipmentID               = "1500"
	AccumulatedDepreciationID = "1510"
	PayablesID                = "2010"
	CreditCardID              = "2020"
	OwnersEquityID            = "3010"
	OwnersDrawsID             = "3020"
	ServiceRevenueID          = "4010"
	ProductRevenueID          = "4020"
	UncategorizedExpenseID    = "5000"
	DepreciationExpenseID     = "5900"
)

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "llc_single_member":
		return llcSingleMemberChart()
	default:
		return llcSingleMemberChart()
	}
}

func llcSingleMemberChart() []model.Account {
	return []model.Account{
		{ID: CashID, Code: "1010", Name: "Business Checking", Type: model.AccountTypeAsset, Description: "Primary checking account"},
		{ID: "1020", Code: "1020", Name: "Business Savings", Type: model.AccountTypeAsset, Description: "Savings account"},
		{ID: ReceivablesID, Code: "1100", Name: "Accounts Receivable", Type: model.AccountTypeAsset, Description: "Invoices awaiting payment"},
		{ID: EquipmentID, Code: "1500", Name: "Equipment", Type: model.AccountTypeAsset, Description: "Computers, furniture and other fixed assets"},
		{ID: AccumulatedDepreciationID, Code: "1510", Name: "Accumulated Depreciation", Type: model.AccountTypeAsset, IsContra: true, Description: "Depreciation recognized against equipment"},
		{ID: PayablesID, Code: "2010", Name: "Accounts Payable", Type: model.AccountTypeLiability, Description: "Bills awaiting payment"},
		{ID: CreditCardID, Code: "2020", Name: "Credit Card", Type: model.AccountTypeLiability, Description: "Business credit card"},
		{ID: OwnersEquityID, Code: "3010", Name: "Owner's Equity", Type: model.AccountTypeEquity, Description: "Owner's contributions"},
		{ID: OwnersDrawsID, Code: "3020", Name: "Owner's Draws", Type: model.AccountTypeEquity, IsContra: true, Description: "Withdrawals by the owner"},
		{ID: ServiceRevenueID, Code: "4010", Name: "Service Revenue", Type: model.AccountTypeIncome},
		{ID: ProductRevenueID, Code: "4020", Name: "Product Revenue", Type: model.AccountTypeIncome},
		{ID: UncategorizedExpenseID, Code: "5000", Name: "Uncategorized Expense", Type: model.AccountTypeExpense, Description: "Awaiting categorization"},
		{ID: "5010", Code: "5010", Name: "Advertising & Marketing", Type: model.AccountTypeExpense, Description: "Advertising costs"},
		{ID: "5020", Code: "5020", Name: "Software & SaaS", Type: model.AccountTypeExpense, Description: "Software subscriptions"},
		{ID: "5030", Code: "5030", Name: "Office Supplies", Type: model.AccountTypeExpense, Description: "Office supplies and expenses"},
		{ID: "5040", Code: "5040", Name: "Professional Services", Type: model.AccountTypeExpense, Description: "Legal, accounting, consulting"},
		{ID: DepreciationExpenseID, Code: "5900", Name: "Depreciation Expense", Type: model.AccountTypeExpense, Description: "Straight-line depreciation"},
	}
}
