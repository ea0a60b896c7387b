// Package auditlog keeps logs/audit-log.csv, the trail of every mutation
// made to a book from the command line.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Actions recorded in the trail.
const (
	ActionInit            = "init"
	ActionAccountAdd      = "account.add"
	ActionAccountArchive  = "account.archive"
	ActionEntryAppend     = "entry.append"
	ActionAssetAdd        = "asset.add"
	ActionDepreciationRun = "depreciation.run"
	ActionImport          = "import"
)

// Record is one row of the audit log.
type Record struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Subject   string // entry, account or asset id
	Details   string
}

// File is the audit log path relative to the repository root.
const File = "logs/audit-log.csv"

var header = []string{"timestamp", "actor", "action", "subject", "details"}

const (
	numFields  = 5
	colTime    = 0
	colActor   = 1
	colAction  = 2
	colSubject = 3
	colDetails = 4
)

// Log appends records under one repository for one actor.
type Log struct {
	root  string
	actor string
	now   func() time.Time
}

// New returns a Log writing to <root>/logs/audit-log.csv.
func New(root, actor string) *Log {
	return &Log{root: root, actor: actor, now: time.Now}
}

// Record appends one row stamped with the current time.
func (l *Log) Record(action, subject, details string) error {
	return Append(l.root, []Record{{
		Timestamp: l.now().UTC(),
		Actor:     l.actor,
		Action:    action,
		Subject:   subject,
		Details:   details,
	}})
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(r Record) []string {
	row := make([]string, numFields)
	row[colTime] = r.Timestamp.Format(time.RFC3339)
	row[colActor] = r.Actor
	row[colAction] = r.Action
	row[colSubject] = r.Subject
	row[colDetails] = r.Details
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(row []string) (Record, error) {
	if len(row) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[colTime])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", row[colTime], err)
	}
	return Record{
		Timestamp: ts,
		Actor:     row[colActor],
		Action:    row[colAction],
		Subject:   row[colSubject],
		Details:   row[colDetails],
	}, nil
}

// Append writes records to <root>/logs/audit-log.csv, creating the file and
// header if needed.
func Append(root string, records []Record) error {
	path := filepath.Join(root, File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	_, statErr := os.Stat(path)
	needsHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every record, or nil when the log does not exist.
func Read(root string) ([]Record, error) {
	f, err := os.Open(filepath.Join(root, File))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()
	return readRecords(f)
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var records []Record
	for i, row := range rows[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
