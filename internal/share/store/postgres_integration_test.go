//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	certmodels "credvault/internal/certificate/models"
	certstore "credvault/internal/certificate/store"
	"credvault/internal/share/models"
	"credvault/internal/share/store"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
	"credvault/pkg/testutil"
	"credvault/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	cert     *certmodels.Certificate
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	issuer := testutil.NewAccountBuilder().WithName("MIT").WithEmail("registrar@mit.edu").WithRole(id.RoleInstitution).Build()
	s.postgres.CreateTestAccount(ctx, s.T(), issuer)
	s.cert = testutil.NewCertificateBuilder().IssuedBy(issuer).To("Ada", "ada@x.com").
		WithFile("data:image/png;base64,iVBORw0K", "diploma.png", "image/png").Build()
	s.Require().NoError(certstore.NewPostgres(s.postgres.DB).Create(ctx, s.cert))
}

func (s *PostgresStoreSuite) share(recipient string, expiresAt *time.Time, at time.Time) *models.Share {
	sh, err := models.NewShare(id.NewShareID(), s.cert.ID, recipient, "ada@x.com", expiresAt, at)
	s.Require().NoError(err)
	return sh
}

func (s *PostgresStoreSuite) TestListJoinsCertificate() {
	ctx := context.Background()
	expires := testutil.FixedTime.Add(48 * time.Hour)
	older := s.share("hr@acme.com", nil, testutil.FixedTime)
	newer := s.share("hr@acme.com", &expires, testutil.FixedTime.Add(time.Hour))
	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	got, err := s.store.ListByRecipientEmail(ctx, "hr@acme.com")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].Share.ID)
	s.Require().NotNil(got[0].Share.ExpiresAt)
	s.True(expires.Equal(*got[0].Share.ExpiresAt))
	s.Nil(got[1].Share.ExpiresAt)

	s.Require().NotNil(got[0].Certificate)
	s.Equal(s.cert.ID, got[0].Certificate.ID)
	s.Equal("MIT", got[0].Certificate.IssuerName)
	s.Require().NotNil(got[0].Certificate.File)
	s.Equal("diploma.png", got[0].Certificate.File.Name)

	none, err := s.store.ListByRecipientEmail(ctx, "nobody@acme.com")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *PostgresStoreSuite) TestUnknownCertificateIsNotFound() {
	sh, err := models.NewShare(id.NewShareID(), id.NewCertificateID(), "hr@acme.com", "ada@x.com", nil, testutil.FixedTime)
	s.Require().NoError(err)

	err = s.store.Create(context.Background(), sh)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateIDFails() {
	ctx := context.Background()
	sh := s.share("hr@acme.com", nil, testutil.FixedTime)
	s.Require().NoError(s.store.Create(ctx, sh))
	s.Error(s.store.Create(ctx, sh))
}

func (s *PostgresStoreSuite) TestDeleteExpired() {
	ctx := context.Background()
	past := testutil.FixedTime.Add(-time.Hour)
	future := testutil.FixedTime.Add(time.Hour)
	s.Require().NoError(s.store.Create(ctx, s.share("a@acme.com", &past, testutil.FixedTime.Add(-2*time.Hour))))
	s.Require().NoError(s.store.Create(ctx, s.share("b@acme.com", &future, testutil.FixedTime)))
	s.Require().NoError(s.store.Create(ctx, s.share("c@acme.com", nil, testutil.FixedTime)))

	n, err := s.store.DeleteExpired(ctx, testutil.FixedTime)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(2, s.postgres.CountRows(ctx, s.T(), "shares"))
}

func (s *PostgresStoreSuite) TestSharesFollowCertificateDeletion() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.share("hr@acme.com", nil, testutil.FixedTime)))

	_, err := s.postgres.DB.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, s.cert.ID.String())
	s.Require().NoError(err)

	got, err := s.store.ListByRecipientEmail(ctx, "hr@acme.com")
	s.Require().NoError(err)
	s.Empty(got)
}
