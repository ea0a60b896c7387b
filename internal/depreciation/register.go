package depreciation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// ErrInvalidAsset is returned for asset records that cannot be depreciated.
var ErrInvalidAsset = errors.New("invalid asset")

// ErrDuplicateID is returned when an asset ID is already registered.
var ErrDuplicateID = errors.New("duplicate asset id")

// Register holds the fixed assets under depreciation. Records are never
// mutated after they are added.
type Register struct {
	assets []model.AssetRecord
	byID   map[string]int
}

// NewRegister creates a Register from previously stored assets.
func NewRegister(assets []model.AssetRecord) (*Register, error) {
	r := &Register{byID: make(map[string]int, len(assets))}
	for _, a := range assets {
		if _, err := r.Add(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Clone returns an independent copy of the register.
func (r *Register) Clone() *Register {
	byID := make(map[string]int, len(r.byID))
	for k, v := range r.byID {
		byID[k] = v
	}
	return &Register{assets: slices.Clone(r.assets), byID: byID}
}

// Add validates and stores an asset, assigning an ID if none is set.
func (r *Register) Add(asset model.AssetRecord) (model.AssetRecord, error) {
	if err := Check(asset); err != nil {
		return model.AssetRecord{}, err
	}
	if asset.ID == "" {
		asset.ID = id.New()
	}
	if _, ok := r.byID[asset.ID]; ok {
		return model.AssetRecord{}, fmt.Errorf("%w: %s", ErrDuplicateID, asset.ID)
	}
	asset.AcquisitionDate = dateOnly(asset.AcquisitionDate)
	r.byID[asset.ID] = len(r.assets)
	r.assets = append(r.assets, asset)
	return asset, nil
}

// Get returns the asset with the given ID.
func (r *Register) Get(assetID string) (model.AssetRecord, bool) {
	i, ok := r.byID[assetID]
	if !ok {
		return model.AssetRecord{}, false
	}
	return r.assets[i], true
}

// All returns every asset in registration order.
func (r *Register) All() []model.AssetRecord {
	return slices.Clone(r.assets)
}

// Check reports the first structural problem with an asset record.
func Check(a model.AssetRecord) error {
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidAsset)
	case !a.Cost.IsPositive():
		return fmt.Errorf("%w: cost must be positive, got %s", ErrInvalidAsset, a.Cost)
	case a.SalvageValue.IsNegative():
		return fmt.Errorf("%w: salvage value is negative", ErrInvalidAsset)
	case a.SalvageValue.GreaterThan(a.Cost):
		return fmt.Errorf("%w: salvage value %s exceeds cost %s", ErrInvalidAsset, a.SalvageValue, a.Cost)
	case a.UsefulLifeYears < 1:
		return fmt.Errorf("%w: useful life must be at least one year, got %d", ErrInvalidAsset, a.UsefulLifeYears)
	case a.AcquisitionDate.IsZero():
		return fmt.Errorf("%w: acquisition date is required", ErrInvalidAsset)
	case a.AccountID == "" || a.DepreciationExpenseAccountID == "" || a.AccumulatedDepAccountID == "":
		return fmt.Errorf("%w: asset, expense and accumulated depreciation accounts are required", ErrInvalidAsset)
	}
	return nil
}
