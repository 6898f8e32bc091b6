package service

//go:generate mockgen -source=common.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"

	accountmodels "credvault/internal/account/models"
	"credvault/internal/certrequest/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	ListByRecipientEmail(ctx context.Context, email string) ([]*models.Request, error)
	ListByInstitutionName(ctx context.Context, name string) ([]*models.Request, error)
	ListByInstitutionID(ctx context.Context, institutionID id.AccountID) ([]*models.Request, error)
	Execute(ctx context.Context, requestID id.RequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error)
}

// AccountDirectory resolves callers and institution names to accounts.
type AccountDirectory interface {
	GetAccount(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error)
	ResolveInstitution(ctx context.Context, name string) (*accountmodels.Account, error)
}

func wrapRequestErr(err error, action string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "request not found")
	case sentinel.IsUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, action)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, action)
	}
}
