package service

import (
	"strings"

	dErrors "credvault/pkg/domain-errors"
)

type CreateCommand struct {
	Title           string
	InstitutionName string
}

func (c *CreateCommand) Validate() error {
	if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.InstitutionName) == "" {
		return dErrors.New(dErrors.CodeValidation, "title and institutionName are required")
	}
	return nil
}
