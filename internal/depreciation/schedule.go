package depreciation

import (
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// MatchMode selects which postings count as depreciation already recorded
// for an asset.
type MatchMode string

const (
	// MatchByAsset counts only postings from entries referencing the asset.
	MatchByAsset MatchMode = "asset"
	// MatchByAccount counts every posting on the accumulated depreciation
	// account. Assets sharing that account see each other's accruals.
	MatchByAccount MatchMode = "account"
)

// ParseMatchMode parses a configured match mode. Empty means MatchByAsset.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchByAsset:
		return MatchByAsset, nil
	case MatchByAccount:
		return MatchByAccount, nil
	}
	return "", fmt.Errorf("unknown depreciation match mode %q", s)
}

// DefaultThreshold is the smallest delta worth an entry.
var DefaultThreshold = decimal.New(1, -2)

// Options tune Generate. The zero value matches by asset, rounds to cents
// and uses DefaultThreshold.
type Options struct {
	Match    MatchMode
	Currency string // ISO 4217 code; sets the rounding scale
	// Threshold is the delta an entry must exceed. Nil means DefaultThreshold;
	// a zero threshold emits every positive delta.
	Threshold *decimal.Decimal
}

// Reference returns the entry reference tying depreciation to an asset.
func Reference(assetID string) string {
	return "depreciation:" + assetID
}

// AcquisitionReference returns the reference of an asset's acquisition entry.
func AcquisitionReference(assetID string) string {
	return "acquisition:" + assetID
}

// Generate computes the depreciation entries needed to bring each asset's
// accumulated depreciation up to asOf. Entries are not appended: callers
// pass them through the journal. Running Generate again after appending its
// output yields nothing.
func Generate(assets []model.AssetRecord, postings []model.Posting, asOf time.Time, opts Options) []model.JournalEntry {
	asOf = dateOnly(asOf)
	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	scale := CurrencyScale(opts.Currency)

	var entries []model.JournalEntry
	for _, a := range assets {
		if dateOnly(a.AcquisitionDate).After(asOf) {
			continue
		}
		delta := Accumulated(a, asOf, scale).Sub(posted(a, postings, opts.Match))
		if !delta.GreaterThan(threshold) {
			continue
		}
		entries = append(entries, model.JournalEntry{
			Date:      asOf,
			Memo:      "Depreciation: " + a.Name,
			Reference: Reference(a.ID),
			Lines: []model.JournalLine{
				{AccountID: a.DepreciationExpenseAccountID, Description: "Depreciation expense", Debit: delta},
				{AccountID: a.AccumulatedDepAccountID, Description: "Accumulated depreciation", Credit: delta},
			},
		})
	}
	return entries
}

// MonthsElapsed counts calendar months from acquisition through asOf, both
// months included. It is zero when asOf precedes acquisition.
func MonthsElapsed(acquired, asOf time.Time) int {
	if asOf.Before(acquired) {
		return 0
	}
	return (asOf.Year()-acquired.Year())*12 + int(asOf.Month()-acquired.Month()) + 1
}

// Monthly is the straight-line amount recognized per month.
func Monthly(a model.AssetRecord) decimal.Decimal {
	return a.DepreciableBase().Div(decimal.NewFromInt(int64(a.UsefulLifeYears * 12)))
}

// Accumulated is the depreciation an asset should carry as of a date, capped
// at its depreciable base. Unlike Monthly times months, the result is rounded
// to scale decimal places, the currency minor unit, so it matches what the
// journal can hold.
func Accumulated(a model.AssetRecord, asOf time.Time, scale int32) decimal.Decimal {
	months := MonthsElapsed(dateOnly(a.AcquisitionDate), dateOnly(asOf))
	acc := Monthly(a).Mul(decimal.NewFromInt(int64(months))).Round(scale)
	if base := a.DepreciableBase(); acc.GreaterThan(base) {
		return base
	}
	return acc
}

func posted(a model.AssetRecord, postings []model.Posting, mode MatchMode) decimal.Decimal {
	ref := Reference(a.ID)
	total := decimal.Zero
	for _, p := range postings {
		if p.AccountID != a.AccumulatedDepAccountID {
			continue
		}
		if mode != MatchByAccount && p.Reference != ref {
			continue
		}
		total = total.Add(p.Credit.Sub(p.Debit))
	}
	return total
}

// CurrencyScale returns the minor-unit digits of a currency, 2 when unknown.
func CurrencyScale(code string) int32 {
	if code == "" {
		code = "USD"
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return 2
	}
	return int32(cur.Fraction)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
