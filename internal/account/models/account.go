package models

import (
	"strings"
	"time"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

// DefaultIssuerName labels certificates issued by an account without a display name.
const DefaultIssuerName = "Unknown Institution"

// Account is any actor: holder, institution, employer or regulator.
// Email is unique and matched case-sensitively. Role never changes after signup.
type Account struct {
	ID              id.AccountID
	Name            string
	Email           string
	PasswordHash    string `json:"-"`
	Role            id.Role
	WalletID        string
	LastLogin       *time.Time
	LastLoginDevice string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewAccount(accountID id.AccountID, name, email, passwordHash string, role id.Role, walletID string, now time.Time) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account name cannot be empty")
	}
	if strings.TrimSpace(email) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	return &Account{
		ID:           accountID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		WalletID:     walletID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// RecordLogin stamps a successful authentication.
func (a *Account) RecordLogin(now time.Time, device string) {
	a.LastLogin = &now
	a.LastLoginDevice = device
	a.UpdatedAt = now
}

// IssuerName is the name stamped on certificates this account issues.
func (a *Account) IssuerName() string {
	if strings.TrimSpace(a.Name) == "" {
		return DefaultIssuerName
	}
	return a.Name
}

func (a *Account) IsInstitution() bool {
	return a.Role == id.RoleInstitution
}
