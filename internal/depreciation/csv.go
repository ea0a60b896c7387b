package depreciation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

const (
	numFields   = 10
	colID       = 0
	colName     = 1
	colCost     = 2
	colSalvage  = 3
	colLife     = 4
	colAcquired = 5
	colAccount  = 6
	colExpense  = 7
	colAccumDep = 8
	colFunding  = 9
	dateFormat  = "2006-01-02"
)

var header = []string{
	"asset_id", "name", "cost", "salvage_value", "useful_life_years", "acquisition_date",
	"account_id", "depreciation_expense_account_id", "accumulated_depreciation_account_id", "funding_account_id",
}

// ReadAssets reads assets.csv.
func ReadAssets(r io.Reader) ([]model.AssetRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading assets CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var assets []model.AssetRecord
	for i, rec := range records[1:] {
		a, err := UnmarshalAsset(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// WriteAssets writes assets.csv, header included.
func WriteAssets(w io.Writer, assets []model.AssetRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, a := range assets {
		if err := cw.Write(MarshalAsset(a)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAsset converts an asset to a CSV row.
func MarshalAsset(a model.AssetRecord) []string {
	row := make([]string, numFields)
	row[colID] = a.ID
	row[colName] = a.Name
	row[colCost] = a.Cost.String()
	row[colSalvage] = a.SalvageValue.String()
	row[colLife] = strconv.Itoa(a.UsefulLifeYears)
	row[colAcquired] = a.AcquisitionDate.Format(dateFormat)
	row[colAccount] = a.AccountID
	row[colExpense] = a.DepreciationExpenseAccountID
	row[colAccumDep] = a.AccumulatedDepAccountID
	row[colFunding] = a.FundingAccountID
	return row
}

// UnmarshalAsset converts a CSV row to an asset.
func UnmarshalAsset(record []string) (model.AssetRecord, error) {
	if len(record) != numFields {
		return model.AssetRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	cost, err := decimal.NewFromString(record[colCost])
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("parsing cost %q: %w", record[colCost], err)
	}
	salvage := decimal.Zero
	if record[colSalvage] != "" {
		salvage, err = decimal.NewFromString(record[colSalvage])
		if err != nil {
			return model.AssetRecord{}, fmt.Errorf("parsing salvage value %q: %w", record[colSalvage], err)
		}
	}
	life, err := strconv.Atoi(record[colLife])
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("parsing useful life %q: %w", record[colLife], err)
	}
	acquired, err := time.Parse(dateFormat, record[colAcquired])
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("parsing acquisition date %q: %w", record[colAcquired], err)
	}

	return model.AssetRecord{
		ID:                           record[colID],
		Name:                         record[colName],
		Cost:                         cost,
		SalvageValue:                 salvage,
		UsefulLifeYears:              life,
		AcquisitionDate:              acquired,
		AccountID:                    record[colAccount],
		DepreciationExpenseAccountID: record[colExpense],
		AccumulatedDepAccountID:      record[colAccumDep],
		FundingAccountID:             record[colFunding],
	}, nil
}
