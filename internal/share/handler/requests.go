package handler

import (
	"strings"
	"time"

	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/validation"
)

type CreateShareRequest struct {
	CertificateID  string     `json:"certificateId" validate:"required,uuid"`
	RecipientEmail string     `json:"recipientEmail" validate:"required,email"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

func (r *CreateShareRequest) Normalize() {
	if r == nil {
		return
	}
	r.CertificateID = strings.TrimSpace(r.CertificateID)
	r.RecipientEmail = strings.TrimSpace(r.RecipientEmail)
}

func (r *CreateShareRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	return validation.CheckStringLength("recipientEmail", r.RecipientEmail, validation.MaxEmailLength)
}
