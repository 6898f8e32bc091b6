package service

//go:generate mockgen -source=common.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"time"

	accountmodels "credvault/internal/account/models"
	certmodels "credvault/internal/certificate/models"
	"credvault/internal/share/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, share *models.Share) error
	ListByRecipientEmail(ctx context.Context, email string) ([]models.SharedCertificate, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

type AccountLookup interface {
	GetAccount(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error)
}

// CertificateReader loads the certificate being shared. Errors are already
// domain errors.
type CertificateReader interface {
	Get(ctx context.Context, certID id.CertificateID) (*certmodels.Certificate, error)
}

func wrapShareErr(err error, action string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	case sentinel.IsUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, action)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, action)
	}
}
