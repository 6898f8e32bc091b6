package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"credvault/internal/account/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

// InMemory keeps accounts in process memory. Email uniqueness is enforced
// under the write lock so concurrent signups cannot both succeed.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	byEmail  map[string]id.AccountID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[id.AccountID]*models.Account),
		byEmail:  make(map[string]id.AccountID),
	}
}

func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[account.Email]; taken {
		return fmt.Errorf("account email must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	stored := *account
	s.accounts[account.ID] = &stored
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[accountID]; ok {
		out := *a
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if accountID, ok := s.byEmail[email]; ok {
		out := *s.accounts[accountID]
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByNameFold returns the earliest account whose name equals name ignoring case.
func (s *InMemory) FindByNameFold(_ context.Context, name string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var match *models.Account
	for _, a := range s.accounts {
		if strings.EqualFold(a.Name, name) && (match == nil || a.CreatedAt.Before(match.CreatedAt)) {
			match = a
		}
	}
	if match == nil {
		return nil, sentinel.ErrNotFound
	}
	out := *match
	return &out, nil
}

// ListByName returns accounts whose name equals name exactly, oldest first.
func (s *InMemory) ListByName(_ context.Context, name string) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0)
	for _, a := range s.accounts {
		if a.Name == name {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) UpdateLastLogin(_ context.Context, accountID id.AccountID, at time.Time, device string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.RecordLogin(at, device)
	return nil
}
