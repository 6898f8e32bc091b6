package models

import (
	"strings"
	"time"

	certmodels "credvault/internal/certificate/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

// Share lets RecipientEmail view one certificate. It is never mutated.
type Share struct {
	ID             id.ShareID
	CertificateID  id.CertificateID
	RecipientEmail string
	SharedByEmail  string
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

func NewShare(shareID id.ShareID, certID id.CertificateID, recipientEmail, sharedByEmail string, expiresAt *time.Time, now time.Time) (*Share, error) {
	if certID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate is required")
	}
	if strings.TrimSpace(recipientEmail) == "" || strings.TrimSpace(sharedByEmail) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recipient and grantor emails are required")
	}
	return &Share{
		ID:             shareID,
		CertificateID:  certID,
		RecipientEmail: recipientEmail,
		SharedByEmail:  sharedByEmail,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}, nil
}

// IsExpired reports whether the share has lapsed at now. Shares without an
// expiry never lapse.
func (s *Share) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// SharedCertificate is a share joined to its certificate. Certificate is nil
// when the reference no longer resolves.
type SharedCertificate struct {
	Share       *Share
	Certificate *certmodels.Certificate
}
