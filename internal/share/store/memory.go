package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	certmodels "credvault/internal/certificate/models"
	"credvault/internal/share/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

// CertificateReader resolves the certificate side of the join.
type CertificateReader interface {
	FindByID(ctx context.Context, certID id.CertificateID) (*certmodels.Certificate, error)
}

// InMemory keeps shares in memory and joins certificates on read. Unlike the
// PostgreSQL store it does not enforce the certificate reference on write.
type InMemory struct {
	mu     sync.RWMutex
	shares []*models.Share
	certs  CertificateReader
}

func NewInMemory(certs CertificateReader) *InMemory {
	return &InMemory{certs: certs}
}

func (s *InMemory) Create(_ context.Context, share *models.Share) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.shares {
		if existing.ID == share.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *share
	s.shares = append(s.shares, &cp)
	return nil
}

// ListByRecipientEmail returns the recipient's shares newest first, each
// joined to its certificate.
func (s *InMemory) ListByRecipientEmail(ctx context.Context, email string) ([]models.SharedCertificate, error) {
	s.mu.RLock()
	matched := make([]*models.Share, 0)
	for i := len(s.shares) - 1; i >= 0; i-- {
		if sh := s.shares[i]; sh.RecipientEmail == email {
			cp := *sh
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b *models.Share) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	out := make([]models.SharedCertificate, 0, len(matched))
	for _, sh := range matched {
		cert, err := s.certs.FindByID(ctx, sh.CertificateID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		out = append(out, models.SharedCertificate{Share: sh, Certificate: cert})
	}
	return out, nil
}

// DeleteExpired removes shares whose expiry is before cutoff.
func (s *InMemory) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.shares)
	s.shares = slices.DeleteFunc(s.shares, func(sh *models.Share) bool {
		return sh.ExpiresAt != nil && sh.ExpiresAt.Before(cutoff)
	})
	return before - len(s.shares), nil
}
