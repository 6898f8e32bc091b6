package models

import (
	"strings"
	"time"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

type Status string

const (
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseDecision accepts only the two terminal statuses a decision can set.
func ParseDecision(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusApproved, StatusRejected:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
}

// Request is a holder asking an institution for a certificate. It is decided
// exactly once.
type Request struct {
	ID              id.RequestID
	Title           string
	InstitutionID   id.AccountID
	InstitutionName string
	RecipientName   string
	RecipientEmail  string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DecidedAt       *time.Time
}

func NewRequest(requestID id.RequestID, title string, institutionID id.AccountID, institutionName, recipientName, recipientEmail string, now time.Time) (*Request, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(institutionName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title and institution name are required")
	}
	if strings.TrimSpace(recipientEmail) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recipient email is required")
	}
	return &Request{
		ID:              requestID,
		Title:           title,
		InstitutionID:   institutionID,
		InstitutionName: institutionName,
		RecipientName:   recipientName,
		RecipientEmail:  recipientEmail,
		Status:          StatusSent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (r *Request) IsDecided() bool {
	return r.Status != StatusSent
}

func (r *Request) Decide(status Status, now time.Time) error {
	if r.IsDecided() {
		return dErrors.New(dErrors.CodeConflict, "request has already been "+string(r.Status))
	}
	if status != StatusApproved && status != StatusRejected {
		return dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}
	r.Status = status
	r.DecidedAt = &now
	r.UpdatedAt = now
	return nil
}
