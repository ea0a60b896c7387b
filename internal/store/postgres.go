package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/books/internal/model"
)

type accountRow struct {
	ID          string `gorm:"primaryKey"`
	Code        string `gorm:"not null"`
	Name        string `gorm:"not null"`
	Type        string `gorm:"not null"`
	Contra      bool
	Archived    bool
	Description string
	Seq         int64
}

func (accountRow) TableName() string { return "accounts" }

type entryRow struct {
	ID        string    `gorm:"primaryKey"`
	Ordinal   int       `gorm:"not null"`
	Date      time.Time `gorm:"type:date;not null;index:idx_entries_date,priority:1"`
	Memo      string
	Reference string    `gorm:"index"`
	Posted    time.Time `gorm:"column:created_at"`
}

func (entryRow) TableName() string { return "entries" }

type lineRow struct {
	ID          string `gorm:"primaryKey"`
	EntryID     string `gorm:"not null;index:idx_lines_entry,priority:1"`
	Position    int    `gorm:"not null;index:idx_lines_entry,priority:2"`
	AccountID   string `gorm:"not null"`
	Description string
	Debit       decimal.Decimal `gorm:"type:numeric;not null"`
	Credit      decimal.Decimal `gorm:"type:numeric;not null"`
}

func (lineRow) TableName() string { return "lines" }

type assetRow struct {
	ID                      string          `gorm:"primaryKey"`
	Name                    string          `gorm:"not null"`
	Cost                    decimal.Decimal `gorm:"type:numeric;not null"`
	SalvageValue            decimal.Decimal `gorm:"type:numeric;not null"`
	UsefulLifeYears         int             `gorm:"not null"`
	AcquisitionDate         time.Time       `gorm:"type:date;not null"`
	AccountID               string          `gorm:"not null"`
	ExpenseAccountID        string          `gorm:"not null"`
	AccumulatedDepAccountID string          `gorm:"not null"`
	FundingAccountID        string
	Seq                     int64
}

func (assetRow) TableName() string { return "assets" }

// Postgres stores a book in PostgreSQL through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects with a libpq DSN and migrates the schema.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fail("opening postgres", err)
	}
	if err := db.AutoMigrate(&accountRow{}, &entryRow{}, &lineRow{}, &assetRow{}); err != nil {
		return nil, fail("migrating postgres", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Postgres) Load(ctx context.Context) (Snapshot, error) {
	db := s.db.WithContext(ctx)

	var accts []accountRow
	if err := db.Order("seq, id").Find(&accts).Error; err != nil {
		return Snapshot{}, fail("loading accounts", err)
	}
	var entries []entryRow
	if err := db.Order("date, ordinal").Find(&entries).Error; err != nil {
		return Snapshot{}, fail("loading journal", err)
	}
	var lines []lineRow
	if err := db.Order("entry_id, position").Find(&lines).Error; err != nil {
		return Snapshot{}, fail("loading journal", err)
	}
	var assets []assetRow
	if err := db.Order("seq, id").Find(&assets).Error; err != nil {
		return Snapshot{}, fail("loading assets", err)
	}

	var snap Snapshot
	for _, r := range accts {
		typ, err := model.ParseAccountType(r.Type)
		if err != nil {
			return Snapshot{}, fail("loading accounts", fmt.Errorf("account %s: %w", r.ID, err))
		}
		snap.Accounts = append(snap.Accounts, model.Account{
			ID: r.ID, Code: r.Code, Name: r.Name, Type: typ,
			IsContra: r.Contra, Archived: r.Archived, Description: r.Description,
		})
	}

	linesByEntry := make(map[string][]model.JournalLine, len(entries))
	for _, l := range lines {
		linesByEntry[l.EntryID] = append(linesByEntry[l.EntryID], model.JournalLine{
			ID: l.ID, AccountID: l.AccountID, Description: l.Description, Debit: l.Debit, Credit: l.Credit,
		})
	}
	for _, r := range entries {
		y, m, d := r.Date.Date()
		snap.Entries = append(snap.Entries, model.JournalEntry{
			ID:        r.ID,
			Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Memo:      r.Memo,
			Reference: r.Reference,
			Lines:     linesByEntry[r.ID],
			CreatedAt: r.Posted.UTC(),
		})
	}

	for _, r := range assets {
		y, m, d := r.AcquisitionDate.Date()
		snap.Assets = append(snap.Assets, model.AssetRecord{
			ID:                           r.ID,
			Name:                         r.Name,
			Cost:                         r.Cost,
			SalvageValue:                 r.SalvageValue,
			UsefulLifeYears:              r.UsefulLifeYears,
			AcquisitionDate:              time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			AccountID:                    r.AccountID,
			DepreciationExpenseAccountID: r.ExpenseAccountID,
			AccumulatedDepAccountID:      r.AccumulatedDepAccountID,
			FundingAccountID:             r.FundingAccountID,
		})
	}
	return snap, nil
}

// Save writes the snapshot in one transaction. Accounts are upserted;
// entries, lines and assets already present are left alone.
func (s *Postgres) Save(ctx context.Context, snap Snapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(snap.Accounts) > 0 {
			rows := make([]accountRow, len(snap.Accounts))
			for i, a := range snap.Accounts {
				rows[i] = accountRow{
					ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type),
					Contra: a.IsContra, Archived: a.Archived, Description: a.Description, Seq: int64(i),
				}
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
				return fmt.Errorf("saving accounts: %w", err)
			}
		}

		if len(snap.Entries) > 0 {
			entries := make([]entryRow, len(snap.Entries))
			var lines []lineRow
			for i, e := range snap.Entries {
				entries[i] = entryRow{
					ID: e.ID, Ordinal: i, Date: e.Date, Memo: e.Memo, Reference: e.Reference, Posted: e.CreatedAt,
				}
				for pos, l := range e.Lines {
					lines = append(lines, lineRow{
						ID: l.ID, EntryID: e.ID, Position: pos, AccountID: l.AccountID,
						Description: l.Description, Debit: l.Debit, Credit: l.Credit,
					})
				}
			}
			doNothing := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
			if err := tx.Clauses(doNothing).Create(&entries).Error; err != nil {
				return fmt.Errorf("saving entries: %w", err)
			}
			if err := tx.Clauses(doNothing).Create(&lines).Error; err != nil {
				return fmt.Errorf("saving lines: %w", err)
			}
		}

		if len(snap.Assets) > 0 {
			rows := make([]assetRow, len(snap.Assets))
			for i, a := range snap.Assets {
				rows[i] = assetRow{
					ID:                      a.ID,
					Name:                    a.Name,
					Cost:                    a.Cost,
					SalvageValue:            a.SalvageValue,
					UsefulLifeYears:         a.UsefulLifeYears,
					AcquisitionDate:         a.AcquisitionDate,
					AccountID:               a.AccountID,
					ExpenseAccountID:        a.DepreciationExpenseAccountID,
					AccumulatedDepAccountID: a.AccumulatedDepAccountID,
					FundingAccountID:        a.FundingAccountID,
					Seq:                     int64(i),
				}
			}
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).Create(&rows).Error; err != nil {
				return fmt.Errorf("saving assets: %w", err)
			}
		}
		return nil
	})
	return fail("saving snapshot", err)
}
