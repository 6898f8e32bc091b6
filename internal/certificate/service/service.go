package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"credvault/internal/certificate/models"
	"credvault/internal/notify"
	"credvault/internal/platform/metrics"
	"credvault/internal/platform/tracer"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
	"credvault/pkg/requestcontext"
)

// Service runs the certificate lifecycle: issue, list, revoke and public verification.
type Service struct {
	store        Store
	accounts     AccountLookup
	notifier     notify.Notifier
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	storeTimeout time.Duration
	legacyAuthz  bool
}

func New(store Store, accounts AccountLookup, opts ...Option) *Service {
	s := &Service{
		store:        store,
		accounts:     accounts,
		notifier:     notify.Nop{},
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

// Issue creates a verified certificate stamped with the caller as issuer.
func (s *Service) Issue(ctx context.Context, issuer id.AccountID, cmd IssueCommand) (_ *models.Certificate, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue")
	defer func() { span.End(err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccount(ctx, issuer)
	if err != nil {
		return nil, err
	}

	cert, err := models.NewCertificate(
		id.NewCertificateID(),
		strings.TrimSpace(cmd.Title),
		account.ID,
		account.IssuerName(),
		strings.TrimSpace(cmd.RecipientName),
		strings.TrimSpace(cmd.RecipientEmail),
		cmd.file(),
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid certificate")
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.store.Create(storeCtx, cert); err != nil {
		return nil, wrapCertificateErr(err, "failed to create certificate")
	}

	if s.metrics != nil {
		s.metrics.IncrementCertificatesIssued()
	}
	s.logger.InfoContext(ctx, "certificate issued",
		"certificate_id", cert.ID.String(),
		"issuer_id", account.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return cert, nil
}

// ListMine returns certificates addressed to the caller's email.
func (s *Service) ListMine(ctx context.Context, caller id.AccountID) ([]*models.Certificate, error) {
	account, err := s.accounts.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	certs, err := s.store.ListByRecipientEmail(storeCtx, account.Email)
	if err != nil {
		return nil, wrapCertificateErr(err, "failed to list certificates")
	}
	return certs, nil
}

// ListIssued returns certificates the caller issued.
func (s *Service) ListIssued(ctx context.Context, caller id.AccountID) ([]*models.Certificate, error) {
	account, err := s.accounts.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	var certs []*models.Certificate
	if s.legacyAuthz {
		certs, err = s.store.ListByIssuerName(storeCtx, account.IssuerName())
	} else {
		certs, err = s.store.ListByIssuerID(storeCtx, account.ID)
	}
	if err != nil {
		return nil, wrapCertificateErr(err, "failed to list issued certificates")
	}
	return certs, nil
}

func (s *Service) Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	cert, err := s.store.FindByID(storeCtx, certID)
	if err != nil {
		return nil, wrapCertificateErr(err, "failed to load certificate")
	}
	return cert, nil
}

// Revoke moves a certificate to revoked and tells its recipient. A second
// revoke is a conflict.
func (s *Service) Revoke(ctx context.Context, caller id.AccountID, certID id.CertificateID) (_ *models.Certificate, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.revoke", tracer.String("certificate_id", certID.String()))
	defer func() { span.End(err) }()

	now := requestcontext.Now(ctx)
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	cert, err := s.store.Execute(storeCtx, certID,
		func(c *models.Certificate) error {
			if !s.legacyAuthz && c.IssuerID != caller {
				return dErrors.New(dErrors.CodeForbidden, "only the issuing institution can revoke this certificate")
			}
			if c.IsRevoked() {
				return dErrors.New(dErrors.CodeConflict, "certificate is already revoked")
			}
			return nil
		},
		func(c *models.Certificate) {
			_ = c.Revoke(now) //nolint:errcheck // state checked in validate
		},
	)
	if err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, wrapCertificateErr(err, "failed to revoke certificate")
	}

	if s.metrics != nil {
		s.metrics.IncrementCertificatesRevoked()
	}
	s.logger.InfoContext(ctx, "certificate revoked",
		"certificate_id", cert.ID.String(),
		"revoked_by", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notifier.Notify(ctx, notify.Message{
		To:      cert.RecipientEmail,
		Subject: "Important: Your Certificate has been Revoked",
		Body:    fmt.Sprintf("Your certificate for %q issued by %q has been permanently revoked.", cert.Title, cert.IssuerName),
		Kind:    notify.KindCertificateRevoked,
	})
	return cert, nil
}

// VerifyPublic answers an unauthenticated lookup. Every failure is reported
// as not valid, without detail.
func (s *Service) VerifyPublic(ctx context.Context, rawID string) Verification {
	certID, err := id.ParseCertificateID(rawID)
	if err != nil {
		s.recordVerification("invalid_id")
		return Verification{}
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	cert, err := s.store.FindByID(storeCtx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordVerification("not_found")
		} else {
			s.recordVerification("error")
			s.logger.ErrorContext(ctx, "public verification lookup failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return Verification{}
	}

	s.recordVerification(string(cert.Status))
	return Verification{
		Valid: true,
		Certificate: &PublicCertificate{
			ID:            cert.ID.String(),
			Title:         cert.Title,
			IssuerName:    cert.IssuerName,
			RecipientName: cert.RecipientName,
			Status:        cert.Status,
			IssueDate:     cert.CreatedAt,
		},
	}
}

func (s *Service) recordVerification(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementPublicVerifications(outcome)
	}
}
