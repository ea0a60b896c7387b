package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/model"
)

func TestProject(t *testing.T) {
	entries := []model.JournalEntry{
		{
			ID: "2024-02-001", Date: date(2024, 2, 1), Reference: "late",
			Lines: []model.JournalLine{
				{ID: "2024-02-001a", AccountID: "1010", Debit: dec("5")},
				{ID: "2024-02-001b", AccountID: "4010", Credit: dec("5")},
			},
		},
		{
			ID: "2024-01-001", Date: date(2024, 1, 1),
			Lines: []model.JournalLine{
				{ID: "2024-01-001a", AccountID: "1010", Debit: dec("7")},
				{ID: "2024-01-001b", AccountID: "4010", Credit: dec("3")},
				{ID: "2024-01-001c", AccountID: "4020", Credit: dec("4")},
			},
		},
		{
			ID: "2024-01-002", Date: date(2024, 1, 1),
			Lines: []model.JournalLine{
				{ID: "2024-01-002a", AccountID: "1010", Debit: dec("1")},
				{ID: "2024-01-002b", AccountID: "4010", Credit: dec("1")},
			},
		},
	}

	postings := Project(entries)
	require.Len(t, postings, 7)

	var lineIDs []string
	for _, p := range postings {
		lineIDs = append(lineIDs, p.LineID)
	}
	assert.Equal(t, []string{
		"2024-01-001a", "2024-01-001b", "2024-01-001c",
		"2024-01-002a", "2024-01-002b",
		"2024-02-001a", "2024-02-001b",
	}, lineIDs)

	last := postings[6]
	assert.Equal(t, "2024-02-001", last.EntryID)
	assert.Equal(t, "late", last.Reference)
	assert.Equal(t, "4010", last.AccountID)
	assert.True(t, last.Credit.Equal(dec("5")))
	assert.Equal(t, date(2024, 2, 1), last.Date)
}

func TestProject_PureAndRepeatable(t *testing.T) {
	entries := []model.JournalEntry{
		{ID: "b", Date: date(2024, 2, 1), Lines: []model.JournalLine{{ID: "ba", AccountID: "x"}}},
		{ID: "a", Date: date(2024, 1, 1), Lines: []model.JournalLine{{ID: "aa", AccountID: "y"}}},
	}
	first := Project(entries)
	second := Project(entries)
	assert.Equal(t, first, second)
	assert.Equal(t, "b", entries[0].ID, "input order must not change")
}

func TestProject_Empty(t *testing.T) {
	assert.Empty(t, Project(nil))
}
