package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/books/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

const sqliteDateFormat = "2006-01-02"

// SQLite stores a book in a single SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fail("opening sqlite", err)
	}
	// One connection avoids SQLITE_BUSY between our own writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fail("opening sqlite", err)
	}
	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fail("migrating sqlite", err)
	}
	return &SQLite{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	// m.Close would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Accounts, err = s.loadAccounts(ctx); err != nil {
		return Snapshot{}, fail("loading accounts", err)
	}
	if snap.Entries, err = s.loadEntries(ctx); err != nil {
		return Snapshot{}, fail("loading journal", err)
	}
	if snap.Assets, err = s.loadAssets(ctx); err != nil {
		return Snapshot{}, fail("loading assets", err)
	}
	return snap, nil
}

func (s *SQLite) loadAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name, type, contra, archived, description FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Account
	for rows.Next() {
		var a model.Account
		var typ string
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &typ, &a.IsContra, &a.Archived, &a.Description); err != nil {
			return nil, err
		}
		if a.Type, err = model.ParseAccountType(typ); err != nil {
			return nil, fmt.Errorf("account %s: %w", a.ID, err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *SQLite) loadEntries(ctx context.Context) ([]model.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.date, e.memo, e.reference, e.created_at,
		       l.id, l.account_id, l.description, l.debit, l.credit
		FROM entries e JOIN lines l ON l.entry_id = e.id
		ORDER BY e.date, e.ordinal, l.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var l model.JournalLine
		var date, created, debit, credit string
		if err := rows.Scan(&e.ID, &date, &e.Memo, &e.Reference, &created,
			&l.ID, &l.AccountID, &l.Description, &debit, &credit); err != nil {
			return nil, err
		}
		if n := len(result); n > 0 && result[n-1].ID == e.ID {
			if l.Debit, l.Credit, err = parseAmounts(debit, credit); err != nil {
				return nil, fmt.Errorf("line %s: %w", l.ID, err)
			}
			result[n-1].Lines = append(result[n-1].Lines, l)
			continue
		}
		if e.Date, err = time.Parse(sqliteDateFormat, date); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		if created != "" {
			if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.ID, err)
			}
		}
		if l.Debit, l.Credit, err = parseAmounts(debit, credit); err != nil {
			return nil, fmt.Errorf("line %s: %w", l.ID, err)
		}
		e.Lines = []model.JournalLine{l}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *SQLite) loadAssets(ctx context.Context) ([]model.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cost, salvage_value, useful_life_years, acquisition_date,
		       account_id, expense_account_id, accumulated_dep_account_id, funding_account_id
		FROM assets ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.AssetRecord
	for rows.Next() {
		var a model.AssetRecord
		var cost, salvage, acquired string
		if err := rows.Scan(&a.ID, &a.Name, &cost, &salvage, &a.UsefulLifeYears, &acquired,
			&a.AccountID, &a.DepreciationExpenseAccountID, &a.AccumulatedDepAccountID, &a.FundingAccountID); err != nil {
			return nil, err
		}
		if a.Cost, a.SalvageValue, err = parseAmounts(cost, salvage); err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.ID, err)
		}
		if a.AcquisitionDate, err = time.Parse(sqliteDateFormat, acquired); err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.ID, err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Save writes the snapshot in one transaction.
func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("saving snapshot", err)
	}
	if err := saveSQLite(ctx, tx, snap); err != nil {
		tx.Rollback()
		return fail("saving snapshot", err)
	}
	return fail("saving snapshot", tx.Commit())
}

func saveSQLite(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	for _, a := range snap.Accounts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, code, name, type, contra, archived, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				code = excluded.code, name = excluded.name, type = excluded.type,
				contra = excluded.contra, archived = excluded.archived, description = excluded.description`,
			a.ID, a.Code, a.Name, string(a.Type), a.IsContra, a.Archived, a.Description)
		if err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}

	for i, e := range snap.Entries {
		var created string
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, ordinal, date, memo, reference, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, i, e.Date.Format(sqliteDateFormat), e.Memo, e.Reference, created)
		if err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		for pos, l := range e.Lines {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO lines (id, entry_id, position, account_id, description, debit, credit)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				l.ID, e.ID, pos, l.AccountID, l.Description, l.Debit.String(), l.Credit.String())
			if err != nil {
				return fmt.Errorf("line %s: %w", l.ID, err)
			}
		}
	}

	for _, a := range snap.Assets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assets (id, name, cost, salvage_value, useful_life_years, acquisition_date,
			                    account_id, expense_account_id, accumulated_dep_account_id, funding_account_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			a.ID, a.Name, a.Cost.String(), a.SalvageValue.String(), a.UsefulLifeYears,
			a.AcquisitionDate.Format(sqliteDateFormat), a.AccountID, a.DepreciationExpenseAccountID,
			a.AccumulatedDepAccountID, a.FundingAccountID)
		if err != nil {
			return fmt.Errorf("asset %s: %w", a.ID, err)
		}
	}
	return nil
}

func parseAmounts(a, b string) (decimal.Decimal, decimal.Decimal, error) {
	x, err := decimal.NewFromString(a)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	y, err := decimal.NewFromString(b)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return x, y, nil
}
