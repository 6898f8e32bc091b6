package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	assert.False(t, (&Share{}).IsExpired(now))
	assert.True(t, (&Share{ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&Share{ExpiresAt: &now}).IsExpired(now))
	assert.False(t, (&Share{ExpiresAt: &future}).IsExpired(now))
}

func TestNewShare(t *testing.T) {
	now := time.Now()
	s, err := NewShare(id.NewShareID(), id.NewCertificateID(), "hr@corp.io", "a@x.com", nil, now)
	require.NoError(t, err)
	assert.Equal(t, now, s.CreatedAt)

	_, err = NewShare(id.NewShareID(), id.CertificateID{}, "hr@corp.io", "a@x.com", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
