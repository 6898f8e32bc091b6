// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "credvault/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an AccountID where a CertificateID is expected.
type (
	AccountID     uuid.UUID
	CertificateID uuid.UUID
	RequestID     uuid.UUID
	ShareID       uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, token claims).

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseCertificateID(s string) (CertificateID, error) {
	id, err := parseUUID(s, "certificate ID")
	return CertificateID(id), err
}

func ParseRequestID(s string) (RequestID, error) {
	id, err := parseUUID(s, "request ID")
	return RequestID(id), err
}

func ParseShareID(s string) (ShareID, error) {
	id, err := parseUUID(s, "share ID")
	return ShareID(id), err
}

// New constructors.

func NewAccountID() AccountID         { return AccountID(uuid.New()) }
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }
func NewRequestID() RequestID         { return RequestID(uuid.New()) }
func NewShareID() ShareID             { return ShareID(uuid.New()) }

// String methods - for logging and JSON.

func (id AccountID) String() string     { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id RequestID) String() string     { return uuid.UUID(id).String() }
func (id ShareID) String() string       { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id AccountID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ShareID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic. The nil UUID is rejected: no
// record is ever stored under it.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
