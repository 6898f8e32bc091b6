package models

import (
	"strings"
	"time"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

type Status string

const (
	StatusVerified Status = "verified"
	StatusPending  Status = "pending"
	StatusRevoked  Status = "revoked"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusVerified, StatusPending, StatusRevoked:
		return true
	}
	return false
}

// File is an opaque attachment. Only its content type is interpreted.
type File struct {
	Data        []byte
	Name        string
	ContentType string
}

// Certificate is an issued credential. Status only ever moves toward revoked.
type Certificate struct {
	ID             id.CertificateID
	Title          string
	IssuerID       id.AccountID
	IssuerName     string
	RecipientName  string
	RecipientEmail string
	Status         Status
	File           *File
	CreatedAt      time.Time
	UpdatedAt      time.Time
	RevokedAt      *time.Time
}

func NewCertificate(certID id.CertificateID, title string, issuerID id.AccountID, issuerName, recipientName, recipientEmail string, file *File, now time.Time) (*Certificate, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(recipientName) == "" || strings.TrimSpace(recipientEmail) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title, recipient name and recipient email are required")
	}
	if issuerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "issuer is required")
	}
	return &Certificate{
		ID:             certID,
		Title:          title,
		IssuerID:       issuerID,
		IssuerName:     issuerName,
		RecipientName:  recipientName,
		RecipientEmail: recipientEmail,
		Status:         StatusVerified,
		File:           file,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (c *Certificate) IsRevoked() bool {
	return c.Status == StatusRevoked
}

// Revoke moves the certificate to its terminal state.
func (c *Certificate) Revoke(now time.Time) error {
	if c.IsRevoked() {
		return dErrors.New(dErrors.CodeConflict, "certificate is already revoked")
	}
	c.Status = StatusRevoked
	c.RevokedAt = &now
	c.UpdatedAt = now
	return nil
}
