package service

//go:generate mockgen -source=common.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"

	accountmodels "credvault/internal/account/models"
	"credvault/internal/certificate/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	ListByRecipientEmail(ctx context.Context, email string) ([]*models.Certificate, error)
	ListByIssuerName(ctx context.Context, name string) ([]*models.Certificate, error)
	ListByIssuerID(ctx context.Context, issuerID id.AccountID) ([]*models.Certificate, error)
	Execute(ctx context.Context, certID id.CertificateID, validate func(*models.Certificate) error, mutate func(*models.Certificate)) (*models.Certificate, error)
}

// AccountLookup resolves the caller's account.
type AccountLookup interface {
	GetAccount(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error)
}

func wrapCertificateErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	case sentinel.IsUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, action)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, action)
	}
}
