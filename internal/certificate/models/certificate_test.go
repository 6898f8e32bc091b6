package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

func TestNewCertificate(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	issuer := id.NewAccountID()

	c, err := NewCertificate(id.NewCertificateID(), "B.Tech", issuer, "MIT", "Ada", "a@x.com", nil, now)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, c.Status)
	assert.Equal(t, issuer, c.IssuerID)
	assert.Nil(t, c.RevokedAt)

	_, err = NewCertificate(id.NewCertificateID(), " ", issuer, "MIT", "Ada", "a@x.com", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewCertificate(id.NewCertificateID(), "B.Tech", id.AccountID{}, "MIT", "Ada", "a@x.com", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestRevokeIsTerminal(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, start := range []Status{StatusVerified, StatusPending} {
		c := &Certificate{Status: start}
		require.NoError(t, c.Revoke(now))
		assert.Equal(t, StatusRevoked, c.Status)
		require.NotNil(t, c.RevokedAt)

		err := c.Revoke(now.Add(time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, now, *c.RevokedAt)
	}
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("cancelled").IsValid())
}
