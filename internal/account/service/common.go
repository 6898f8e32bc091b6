package service

//go:generate mockgen -source=common.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"credvault/internal/account/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
)

// Store is the persistence contract for accounts.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByNameFold(ctx context.Context, name string) (*models.Account, error)
	ListByName(ctx context.Context, name string) ([]*models.Account, error)
	UpdateLastLogin(ctx context.Context, accountID id.AccountID, at time.Time, device string) error
}

type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) error
	BurnCompare(secret string)
}

type TokenIssuer interface {
	IssueToken(ctx context.Context, accountID id.AccountID, role id.Role) (string, error)
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

func wrapAccountErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case sentinel.IsUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, action)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, action)
	}
}
