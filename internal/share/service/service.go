package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	certmodels "credvault/internal/certificate/models"
	"credvault/internal/platform/metrics"
	"credvault/internal/platform/tracer"
	"credvault/internal/share/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/requestcontext"
)

// Service grants and lists read access to certificates for third parties.
type Service struct {
	store        Store
	accounts     AccountLookup
	certificates CertificateReader
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	storeTimeout time.Duration
	legacyAuthz  bool
}

func New(store Store, accounts AccountLookup, certificates CertificateReader, opts ...Option) *Service {
	s := &Service{
		store:        store,
		accounts:     accounts,
		certificates: certificates,
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// Create records a share granted by caller. In strict mode the caller must be
// the certificate's recipient or its issuer.
func (s *Service) Create(ctx context.Context, caller id.AccountID, cmd CreateCommand) (_ *models.Share, err error) {
	ctx, span := s.tracer.Start(ctx, "share.create")
	defer func() { span.End(err) }()

	certID, err := cmd.Validate()
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	if !s.legacyAuthz {
		if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(now) {
			return nil, dErrors.New(dErrors.CodeValidation, "expiresAt must be in the future")
		}
		cert, err := s.certificates.Get(ctx, certID)
		if err != nil {
			return nil, err
		}
		if cert.RecipientEmail != account.Email && cert.IssuerID != account.ID {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the certificate holder or issuer can share it")
		}
	}

	share, err := models.NewShare(
		id.NewShareID(),
		certID,
		strings.TrimSpace(cmd.RecipientEmail),
		account.Email,
		cmd.ExpiresAt,
		now,
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid share")
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.store.Create(storeCtx, share); err != nil {
		return nil, wrapShareErr(err, "failed to create share")
	}

	if s.metrics != nil {
		s.metrics.IncrementSharesCreated()
	}
	s.logger.InfoContext(ctx, "certificate shared",
		"share_id", share.ID.String(),
		"certificate_id", certID.String(),
		"shared_by", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return share, nil
}

// ListForRecipient returns live shares addressed to the caller's email.
// Shares whose certificate is gone or whose expiry has passed are left out.
func (s *Service) ListForRecipient(ctx context.Context, caller id.AccountID) ([]SharedCertificate, error) {
	account, err := s.accounts.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	joined, err := s.store.ListByRecipientEmail(storeCtx, account.Email)
	if err != nil {
		return nil, wrapShareErr(err, "failed to list shares")
	}

	now := requestcontext.Now(ctx)
	out := make([]SharedCertificate, 0, len(joined))
	for _, j := range joined {
		if j.Certificate == nil || j.Share.IsExpired(now) {
			continue
		}
		out = append(out, project(j.Share, j.Certificate))
	}
	return out, nil
}

// PurgeExpired deletes shares that expired before cutoff.
func (s *Service) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	n, err := s.store.DeleteExpired(storeCtx, cutoff)
	if err != nil {
		return 0, wrapShareErr(err, "failed to purge expired shares")
	}
	if s.metrics != nil && n > 0 {
		s.metrics.AddSharesPurged(n)
	}
	return n, nil
}

func project(share *models.Share, cert *certmodels.Certificate) SharedCertificate {
	v := SharedCertificate{
		ID:        cert.ID.String(),
		ShareID:   share.ID.String(),
		Title:     cert.Title,
		Issuer:    cert.IssuerName,
		Recipient: cert.RecipientName,
		SharedBy:  share.SharedByEmail,
		Date:      share.CreatedAt.Format(dateLayout),
		Status:    cert.Status,
		ExpiresAt: share.ExpiresAt,
	}
	if cert.File != nil {
		v.FileData = string(cert.File.Data)
		v.FileName = cert.File.Name
		v.FileType = cert.File.ContentType
	}
	return v
}
