package books

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/model"
)

// ErrInvalidSpec matches every *ValidationError.
var ErrInvalidSpec = errors.New("invalid spec")

// ValidationError lists the problems found in an AccountSpec or AssetSpec.
type ValidationError struct {
	Kind     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidSpec }

func checkSpec(kind string, v *validate.Validation) error {
	if v.Validate() {
		return nil
	}
	var problems []string
	for _, msgs := range v.Errors.All() {
		for _, msg := range msgs {
			problems = append(problems, msg)
		}
	}
	slices.Sort(problems)
	return &ValidationError{Kind: kind, Problems: problems}
}

// AccountSpec describes an account to add to the chart.
type AccountSpec struct {
	ID          string // optional; a uuid is assigned when empty
	Code        string
	Name        string
	Type        string
	IsContra    bool
	Description string
}

func (s AccountSpec) account() (model.Account, error) {
	v := validate.Map(map[string]any{
		"code": s.Code,
		"name": s.Name,
		"type": s.Type,
	})
	v.StopOnError = false
	v.StringRule("code", "required")
	v.StringRule("name", "required")
	v.StringRule("type", "required|in:asset,liability,equity,income,expense")
	if err := checkSpec("account", v); err != nil {
		return model.Account{}, err
	}

	typ, err := model.ParseAccountType(s.Type)
	if err != nil {
		return model.Account{}, &ValidationError{Kind: "account", Problems: []string{err.Error()}}
	}
	return model.Account{
		ID:          s.ID,
		Code:        s.Code,
		Name:        s.Name,
		Type:        typ,
		IsContra:    s.IsContra,
		Description: s.Description,
	}, nil
}

// AssetSpec describes a fixed asset acquisition. Empty account IDs fall back
// to the default chart's equipment, depreciation, accumulated depreciation
// and cash accounts.
type AssetSpec struct {
	Name            string
	Cost            decimal.Decimal
	SalvageValue    decimal.Decimal
	UsefulLifeYears int
	AcquisitionDate time.Time

	AccountID                    string
	DepreciationExpenseAccountID string
	AccumulatedDepAccountID      string
	FundingAccountID             string
}

func (s AssetSpec) record(cashAccountID string) (model.AssetRecord, error) {
	v := validate.Map(map[string]any{
		"name":              s.Name,
		"useful_life_years": s.UsefulLifeYears,
	})
	v.StopOnError = false
	v.StringRule("name", "required")
	v.StringRule("useful_life_years", "required|int|min:1")
	if err := checkSpec("asset", v); err != nil {
		return model.AssetRecord{}, err
	}

	var problems []string
	if !s.Cost.IsPositive() {
		problems = append(problems, "cost must be positive")
	}
	if s.SalvageValue.IsNegative() {
		problems = append(problems, "salvage value must not be negative")
	}
	if s.SalvageValue.GreaterThan(s.Cost) {
		problems = append(problems, "salvage value exceeds cost")
	}
	if s.AcquisitionDate.IsZero() {
		problems = append(problems, "acquisition date is required")
	}
	if len(problems) > 0 {
		return model.AssetRecord{}, &ValidationError{Kind: "asset", Problems: problems}
	}

	if cashAccountID == "" {
		cashAccountID = accounts.CashID
	}
	return model.AssetRecord{
		Name:                         s.Name,
		Cost:                         s.Cost,
		SalvageValue:                 s.SalvageValue,
		UsefulLifeYears:              s.UsefulLifeYears,
		AcquisitionDate:              s.AcquisitionDate,
		AccountID:                    orDefault(s.AccountID, accounts.EquipmentID),
		DepreciationExpenseAccountID: orDefault(s.DepreciationExpenseAccountID, accounts.DepreciationExpenseID),
		AccumulatedDepAccountID:      orDefault(s.AccumulatedDepAccountID, accounts.AccumulatedDepreciationID),
		FundingAccountID:             orDefault(s.FundingAccountID, cashAccountID),
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
