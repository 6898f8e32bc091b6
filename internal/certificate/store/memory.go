package store

import (
	"context"
	"slices"
	"sync"

	"credvault/internal/certificate/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

// InMemory stores certificates in insertion order; lists come back newest first.
type InMemory struct {
	mu    sync.RWMutex
	certs map[id.CertificateID]*models.Certificate
	order []id.CertificateID
}

func NewInMemory() *InMemory {
	return &InMemory{certs: make(map[id.CertificateID]*models.Certificate)}
}

func (s *InMemory) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.certs[cert.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.certs[cert.ID] = clone(cert)
	s.order = append(s.order, cert.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, certID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.certs[certID]; ok {
		return clone(c), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByRecipientEmail(_ context.Context, email string) ([]*models.Certificate, error) {
	return s.list(func(c *models.Certificate) bool { return c.RecipientEmail == email }), nil
}

func (s *InMemory) ListByIssuerName(_ context.Context, name string) ([]*models.Certificate, error) {
	return s.list(func(c *models.Certificate) bool { return c.IssuerName == name }), nil
}

func (s *InMemory) ListByIssuerID(_ context.Context, issuerID id.AccountID) ([]*models.Certificate, error) {
	return s.list(func(c *models.Certificate) bool { return c.IssuerID == issuerID }), nil
}

// Execute validates and mutates a certificate under the write lock.
func (s *InMemory) Execute(_ context.Context, certID id.CertificateID, validate func(*models.Certificate) error, mutate func(*models.Certificate)) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.certs[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.certs[certID] = working
	return clone(working), nil
}

func (s *InMemory) list(match func(*models.Certificate) bool) []*models.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Certificate, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		if c := s.certs[s.order[i]]; match(c) {
			out = append(out, clone(c))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Certificate) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func clone(c *models.Certificate) *models.Certificate {
	out := *c
	if c.File != nil {
		f := *c.File
		f.Data = slices.Clone(c.File.Data)
		out.File = &f
	}
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		out.RevokedAt = &t
	}
	return &out
}
