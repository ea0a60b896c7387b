package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetRecord is a fixed asset tracked for straight-line depreciation.
type AssetRecord struct {
	ID                           string
	Name                         string
	Cost                         decimal.Decimal
	SalvageValue                 decimal.Decimal
	UsefulLifeYears              int
	AcquisitionDate              time.Time
	AccountID                    string
	DepreciationExpenseAccountID string
	AccumulatedDepAccountID      string
	FundingAccountID             string // credited by the acquisition entry
}

// DepreciableBase is cost minus salvage value.
func (a AssetRecord) DepreciableBase() decimal.Decimal {
	return a.Cost.Sub(a.SalvageValue)
}
