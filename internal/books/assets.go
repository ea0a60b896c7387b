package books

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/books/internal/depreciation"
	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/model"
)

// AddAsset registers a fixed asset and appends its acquisition entry
// (debit the asset account, credit the funding account) in one step.
// Either both are persisted or neither is.
func (b *Book) AddAsset(ctx context.Context, spec AssetSpec) (model.AssetRecord, error) {
	rec, err := spec.record(b.opts.CashAccountID)
	if err != nil {
		return model.AssetRecord{}, err
	}

	var added model.AssetRecord
	var acquisition model.JournalEntry
	err = b.mutate(ctx, func(next *state) error {
		for _, acctID := range []string{rec.AccountID, rec.DepreciationExpenseAccountID, rec.AccumulatedDepAccountID} {
			if !next.chart.Exists(acctID) {
				return &journal.UnknownAccountError{AccountID: acctID}
			}
			if !next.chart.IsActive(acctID) {
				return &journal.ValidationError{Rule: "archived", Description: "asset account " + acctID + " is archived"}
			}
		}

		var err error
		added, err = next.assets.Add(rec)
		if err != nil {
			return err
		}
		acquisition, err = next.journal.Append(model.JournalEntry{
			Date:      added.AcquisitionDate,
			Memo:      "Acquisition: " + added.Name,
			Reference: depreciation.AcquisitionReference(added.ID),
			Lines: []model.JournalLine{
				{AccountID: added.AccountID, Description: added.Name, Debit: added.Cost},
				{AccountID: added.FundingAccountID, Description: added.Name, Credit: added.Cost},
			},
		})
		return err
	})
	if err != nil {
		return model.AssetRecord{}, err
	}
	b.log.WithFields(logrus.Fields{
		"asset_id": added.ID,
		"entry_id": acquisition.ID,
		"cost":     added.Cost.String(),
	}).Info("asset acquired")
	return added, nil
}

// ListAssets returns every registered asset.
func (b *Book) ListAssets() []model.AssetRecord {
	var result []model.AssetRecord
	b.read(func(cur *state) { result = cur.assets.All() })
	return result
}

// GenerateDepreciationEntries returns the entries that would bring every
// asset's accumulated depreciation up to asOf. Nothing is appended.
func (b *Book) GenerateDepreciationEntries(asOf time.Time) []model.JournalEntry {
	var result []model.JournalEntry
	b.read(func(cur *state) {
		result = depreciation.Generate(cur.assets.All(), cur.journal.Postings(), asOf, b.opts.Depreciation)
	})
	return result
}

// RunDepreciation generates and appends depreciation entries as of a date
// and returns the appended entries. Running it twice for the same date
// appends nothing the second time.
func (b *Book) RunDepreciation(ctx context.Context, asOf time.Time) ([]model.JournalEntry, error) {
	var appended []model.JournalEntry
	err := b.mutate(ctx, func(next *state) error {
		pending := depreciation.Generate(next.assets.All(), next.journal.Postings(), asOf, b.opts.Depreciation)
		if len(pending) == 0 {
			return errNoChange
		}
		for _, e := range pending {
			a, err := next.journal.Append(e)
			if err != nil {
				return err
			}
			appended = append(appended, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, e := range appended {
		b.log.WithFields(logrus.Fields{
			"entry_id":  e.ID,
			"reference": e.Reference,
			"delta":     e.Lines[0].Debit.String(),
		}).Info("depreciation posted")
	}
	return appended, nil
}
