package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	certmodels "credvault/internal/certificate/models"
	certstore "credvault/internal/certificate/store"
	"credvault/internal/share/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

type InMemoryShareStoreSuite struct {
	suite.Suite
	certs *certstore.InMemory
	store *InMemory
	ctx   context.Context
	now   time.Time
	cert  *certmodels.Certificate
}

func TestInMemoryShareStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryShareStoreSuite))
}

func (s *InMemoryShareStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	s.certs = certstore.NewInMemory()
	s.store = NewInMemory(s.certs)

	cert, err := certmodels.NewCertificate(id.NewCertificateID(), "B.Tech", id.NewAccountID(), "MIT", "Ada", "a@x.com", nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.certs.Create(s.ctx, cert))
	s.cert = cert
}

func (s *InMemoryShareStoreSuite) share(certID id.CertificateID, to string, createdAt time.Time, expiresAt *time.Time) *models.Share {
	sh, err := models.NewShare(id.NewShareID(), certID, to, "a@x.com", expiresAt, createdAt)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, sh))
	return sh
}

func (s *InMemoryShareStoreSuite) TestListJoinsNewestFirst() {
	older := s.share(s.cert.ID, "hr@corp.io", s.now, nil)
	newer := s.share(s.cert.ID, "hr@corp.io", s.now.Add(time.Hour), nil)
	s.share(s.cert.ID, "other@corp.io", s.now, nil)

	got, err := s.store.ListByRecipientEmail(s.ctx, "hr@corp.io")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].Share.ID)
	s.Equal(older.ID, got[1].Share.ID)
	s.Equal(s.cert.ID, got[0].Certificate.ID)
}

func (s *InMemoryShareStoreSuite) TestDanglingReferenceHasNilCertificate() {
	s.share(id.NewCertificateID(), "hr@corp.io", s.now, nil)

	got, err := s.store.ListByRecipientEmail(s.ctx, "hr@corp.io")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Nil(got[0].Certificate)
}

func (s *InMemoryShareStoreSuite) TestEmptyListIsNonNil() {
	got, err := s.store.ListByRecipientEmail(s.ctx, "nobody@x.com")
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *InMemoryShareStoreSuite) TestDuplicateID() {
	sh := s.share(s.cert.ID, "hr@corp.io", s.now, nil)
	s.ErrorIs(s.store.Create(s.ctx, sh), sentinel.ErrAlreadyUsed)
}

func (s *InMemoryShareStoreSuite) TestDeleteExpired() {
	lapsed := s.now.Add(-time.Hour)
	future := s.now.Add(time.Hour)
	s.share(s.cert.ID, "hr@corp.io", s.now, &lapsed)
	s.share(s.cert.ID, "hr@corp.io", s.now, &future)
	s.share(s.cert.ID, "hr@corp.io", s.now, nil)

	n, err := s.store.DeleteExpired(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, n)

	got, err := s.store.ListByRecipientEmail(s.ctx, "hr@corp.io")
	s.Require().NoError(err)
	s.Len(got, 2)
}
