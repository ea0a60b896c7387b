package depreciation

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/model"
)

func TestRegister_Add(t *testing.T) {
	r, err := NewRegister(nil)
	require.NoError(t, err)

	a := laptop("")
	a.AcquisitionDate = time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
	got, err := r.Add(a)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, date(2024, 1, 1), got.AcquisitionDate)

	stored, ok := r.Get(got.ID)
	require.True(t, ok)
	assert.Equal(t, got, stored)

	_, err = r.Add(got)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, r.All(), 1)
}

func TestRegister_Clone(t *testing.T) {
	r, err := NewRegister([]model.AssetRecord{laptop("a1")})
	require.NoError(t, err)

	c := r.Clone()
	_, err = c.Add(laptop("a2"))
	require.NoError(t, err)

	assert.Len(t, r.All(), 1)
	assert.Len(t, c.All(), 2)
	_, ok := r.Get("a2")
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.AssetRecord)
	}{
		{"no name", func(a *model.AssetRecord) { a.Name = "" }},
		{"zero cost", func(a *model.AssetRecord) { a.Cost = dec("0") }},
		{"negative salvage", func(a *model.AssetRecord) { a.SalvageValue = dec("-1") }},
		{"salvage above cost", func(a *model.AssetRecord) { a.SalvageValue = dec("12000.01") }},
		{"zero life", func(a *model.AssetRecord) { a.UsefulLifeYears = 0 }},
		{"no date", func(a *model.AssetRecord) { a.AcquisitionDate = time.Time{} }},
		{"no accumulated account", func(a *model.AssetRecord) { a.AccumulatedDepAccountID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := laptop("a1")
			tt.mutate(&a)
			assert.ErrorIs(t, Check(a), ErrInvalidAsset)
		})
	}

	assert.NoError(t, Check(laptop("a1")))
}

func TestNewRegister_RejectsInvalid(t *testing.T) {
	bad := laptop("a1")
	bad.UsefulLifeYears = 0
	_, err := NewRegister([]model.AssetRecord{bad})
	assert.ErrorIs(t, err, ErrInvalidAsset)
}

func TestAssetsCSV(t *testing.T) {
	a := laptop("a1")
	a.Name = "Desk, standing"
	a.SalvageValue = dec("150.50")

	var buf bytes.Buffer
	require.NoError(t, WriteAssets(&buf, []model.AssetRecord{a}))
	assert.Contains(t, buf.String(), "asset_id,name,cost")

	got, err := ReadAssets(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, a.Name, got[0].Name)
	assert.True(t, a.Cost.Equal(got[0].Cost))
	assert.True(t, a.SalvageValue.Equal(got[0].SalvageValue))
	assert.Equal(t, a.UsefulLifeYears, got[0].UsefulLifeYears)
	assert.Equal(t, a.AcquisitionDate, got[0].AcquisitionDate)
	assert.Equal(t, a.FundingAccountID, got[0].FundingAccountID)
}

func TestReadAssets_BadRow(t *testing.T) {
	in := "asset_id,name,cost,salvage_value,useful_life_years,acquisition_date,account_id,depreciation_expense_account_id,accumulated_depreciation_account_id,funding_account_id\n" +
		"a1,Laptop,abc,0,3,2024-01-01,1500,5900,1510,1010\n"
	_, err := ReadAssets(bytes.NewBufferString(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
