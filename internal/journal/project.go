package journal

import (
	"slices"

	"github.com/cleared-dev/books/internal/model"
)

// Project flattens entries into postings, one per line, ordered by entry
// date. Ties keep the order of entries in the input and of lines within an
// entry. Project has no side effects.
func Project(entries []model.JournalEntry) []model.Posting {
	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b model.JournalEntry) int {
		return a.Date.Compare(b.Date)
	})
	return flatten(ordered)
}

func flatten(entries []model.JournalEntry) []model.Posting {
	n := 0
	for _, e := range entries {
		n += len(e.Lines)
	}
	postings := make([]model.Posting, 0, n)
	for _, e := range entries {
		for _, l := range e.Lines {
			postings = append(postings, model.Posting{
				EntryID:   e.ID,
				LineID:    l.ID,
				Date:      e.Date,
				AccountID: l.AccountID,
				Reference: e.Reference,
				Debit:     l.Debit,
				Credit:    l.Credit,
			})
		}
	}
	return postings
}
