package store

import (
	"context"
	"slices"
	"sync"

	"credvault/internal/certrequest/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
	order    []id.RequestID
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.requests[req.ID] = clone(req)
	s.order = append(s.order, req.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[requestID]; ok {
		return clone(r), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByRecipientEmail(_ context.Context, email string) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.RecipientEmail == email }), nil
}

func (s *InMemory) ListByInstitutionName(_ context.Context, name string) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.InstitutionName == name }), nil
}

func (s *InMemory) ListByInstitutionID(_ context.Context, institutionID id.AccountID) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.InstitutionID == institutionID }), nil
}

func (s *InMemory) Execute(_ context.Context, requestID id.RequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.requests[requestID] = working
	return clone(working), nil
}

func (s *InMemory) list(match func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		if r := s.requests[s.order[i]]; match(r) {
			out = append(out, clone(r))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Request) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func clone(r *models.Request) *models.Request {
	out := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}
	return &out
}
