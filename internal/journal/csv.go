package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// Header is the CSV header for journal.csv. Each row is one line; the entry
// fields are repeated on every line of the entry.
const Header = "line_id,date,account_id,description,debit,credit,memo,reference,created_at"

const (
	numFields  = 9
	dateFormat = "2006-01-02"
	colLineID  = 0
	colDate    = 1
	colAcctID  = 2
	colDesc    = 3
	colDebit   = 4
	colCredit  = 5
	colMemo    = 6
	colRef     = 7
	colCreated = 8
)

// ReadEntries reads all entries from a journal.csv reader. Lines are grouped
// into entries by their entry ID; entries keep the order of their first line.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	pos := make(map[string]int)
	for i, rec := range records[1:] {
		entry, line, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		p, ok := pos[entry.ID]
		if !ok {
			pos[entry.ID] = len(entries)
			entry.Lines = []model.JournalLine{line}
			entries = append(entries, entry)
			continue
		}
		entries[p].Lines = append(entries[p].Lines, line)
	}
	return entries, nil
}

// WriteEntries writes entries to a journal.csv writer (including header).
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, e := range entries {
		for i := range e.Lines {
			if err := cw.Write(MarshalLine(e, i)); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts line i of an entry to a CSV row ([]string).
func MarshalLine(e model.JournalEntry, i int) []string {
	line := e.Lines[i]
	row := make([]string, numFields)
	row[colLineID] = line.ID
	row[colDate] = e.Date.Format(dateFormat)
	row[colAcctID] = line.AccountID
	row[colDesc] = line.Description

	if !line.Debit.IsZero() {
		row[colDebit] = line.Debit.String()
	}
	if !line.Credit.IsZero() {
		row[colCredit] = line.Credit.String()
	}

	row[colMemo] = e.Memo
	row[colRef] = e.Reference
	if !e.CreatedAt.IsZero() {
		row[colCreated] = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalLine converts a CSV row to its line and the entry fields it carries.
// The returned entry has no lines.
func UnmarshalLine(record []string) (model.JournalEntry, model.JournalLine, error) {
	if len(record) != numFields {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	lineID := record[colLineID]
	entryID := id.EntryGroup(lineID)
	if entryID == "" || entryID == lineID {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("invalid line id %q", lineID)
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	debit, err := parseAmount(record[colDebit])
	if err != nil {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
	}
	credit, err := parseAmount(record[colCredit])
	if err != nil {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
	}

	var created time.Time
	if record[colCreated] != "" {
		created, err = time.Parse(time.RFC3339, record[colCreated])
		if err != nil {
			return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("parsing created_at %q: %w", record[colCreated], err)
		}
	}

	entry := model.JournalEntry{
		ID:        entryID,
		Date:      date,
		Memo:      record[colMemo],
		Reference: record[colRef],
		CreatedAt: created,
	}
	line := model.JournalLine{
		ID:          lineID,
		AccountID:   record[colAcctID],
		Description: record[colDesc],
		Debit:       debit,
		Credit:      credit,
	}
	return entry, line, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
