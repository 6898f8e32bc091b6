package handler

import (
	"strings"

	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/validation"
)

// IssueCertificateRequest carries an optional attachment. fileData is kept
// as the client sent it (usually a data URL) and never interpreted.
type IssueCertificateRequest struct {
	Title          string `json:"title" validate:"notblank"`
	RecipientName  string `json:"recipientName" validate:"notblank"`
	RecipientEmail string `json:"recipientEmail" validate:"required,email"`
	FileData       string `json:"fileData"`
	FileName       string `json:"fileName"`
	FileType       string `json:"fileType"`
}

func (r *IssueCertificateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.RecipientName = strings.TrimSpace(r.RecipientName)
	r.RecipientEmail = strings.TrimSpace(r.RecipientEmail)
	r.FileName = strings.TrimSpace(r.FileName)
	r.FileType = strings.TrimSpace(r.FileType)
}

func (r *IssueCertificateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"title", r.Title, validation.MaxTitleLength},
		{"recipientName", r.RecipientName, validation.MaxNameLength},
		{"recipientEmail", r.RecipientEmail, validation.MaxEmailLength},
		{"fileName", r.FileName, validation.MaxFileNameLength},
		{"fileType", r.FileType, validation.MaxFileTypeLength},
	}
	for _, c := range checks {
		if err := validation.CheckStringLength(c.field, c.value, c.max); err != nil {
			return err
		}
	}
	return nil
}
