package accounts

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// ErrDuplicateID is returned when an account ID is already in the chart.
var ErrDuplicateID = errors.New("duplicate account id")

// ErrNotFound is returned when an account ID is not in the chart.
var ErrNotFound = errors.New("account not found")

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[string]int
}

// NewService creates a Service from a slice of accounts.
// Accounts without an ID are assigned one.
func NewService(accounts []model.Account) (*Service, error) {
	s := &Service{byID: make(map[string]int, len(accounts))}
	for _, a := range accounts {
		if _, err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Clone returns an independent copy of the chart.
func (s *Service) Clone() *Service {
	byID := make(map[string]int, len(s.byID))
	for k, v := range s.byID {
		byID[k] = v
	}
	return &Service{accounts: slices.Clone(s.accounts), byID: byID}
}

// Add appends an account to the chart, assigning an ID if none is set.
// Duplicate codes are allowed; duplicate IDs are not.
func (s *Service) Add(acct model.Account) (model.Account, error) {
	if acct.ID == "" {
		acct.ID = id.New()
	}
	if _, ok := s.byID[acct.ID]; ok {
		return model.Account{}, fmt.Errorf("%w: %s", ErrDuplicateID, acct.ID)
	}
	s.byID[acct.ID] = len(s.accounts)
	s.accounts = append(s.accounts, acct)
	return acct, nil
}

// Archive marks an account as archived. Archiving twice is a no-op.
func (s *Service) Archive(accountID string) (model.Account, error) {
	i, ok := s.byID[accountID]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", ErrNotFound, accountID)
	}
	s.accounts[i].Archived = true
	return s.accounts[i], nil
}

// All returns every account, archived included, in insertion order.
func (s *Service) All() []model.Account {
	return slices.Clone(s.accounts)
}

// List returns active accounts ordered by code.
func (s *Service) List() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if !a.Archived {
			result = append(result, a)
		}
	}
	SortByCode(result)
	return result
}

// Get returns an account by ID.
func (s *Service) Get(accountID string) (model.Account, bool) {
	i, ok := s.byID[accountID]
	if !ok {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(accountID string) bool {
	_, ok := s.byID[accountID]
	return ok
}

// IsActive reports whether an account exists and is not archived.
func (s *Service) IsActive(accountID string) bool {
	a, ok := s.Get(accountID)
	return ok && !a.Archived
}

// ByCode returns the first account with the given code.
func (s *Service) ByCode(code string) (model.Account, bool) {
	for _, a := range s.accounts {
		if a.Code == code {
			return a, true
		}
	}
	return model.Account{}, false
}

// ByType returns all active accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType && !a.Archived {
			result = append(result, a)
		}
	}
	return result
}

// SortByCode orders accounts by code, then ID.
func SortByCode(accts []model.Account) {
	slices.SortStableFunc(accts, func(a, b model.Account) int {
		if c := strings.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
