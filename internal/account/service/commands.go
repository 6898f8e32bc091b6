package service

import (
	"strings"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

type SignupCommand struct {
	Name     string
	Email    string
	Password string
	Role     string
	WalletID string
}

func (c *SignupCommand) Validate() (id.Role, error) {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name, email and password are required")
	}
	role, ok := id.ParseRole(c.Role)
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	return role, nil
}

type LoginCommand struct {
	Email     string
	Password  string
	UserAgent string
}

func (c *LoginCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}
