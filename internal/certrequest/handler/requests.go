package handler

import (
	"strings"

	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/validation"
)

type CreateRequestRequest struct {
	Title           string `json:"title" validate:"notblank"`
	InstitutionName string `json:"institutionName" validate:"notblank"`
}

func (r *CreateRequestRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.InstitutionName = strings.TrimSpace(r.InstitutionName)
}

func (r *CreateRequestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if err := validation.CheckStringLength("title", r.Title, validation.MaxTitleLength); err != nil {
		return err
	}
	return validation.CheckStringLength("institutionName", r.InstitutionName, validation.MaxNameLength)
}

// UpdateStatusRequest is checked by the service, which owns the set of
// allowed decisions.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Normalize() {
	if r == nil {
		return
	}
	r.Status = strings.TrimSpace(r.Status)
}
