package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"credvault/internal/certrequest/models"
	"credvault/internal/platform/metrics"
	"credvault/internal/platform/tracer"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/requestcontext"
)

// Service runs the request lifecycle: a holder sends, the institution decides once.
type Service struct {
	store        Store
	accounts     AccountDirectory
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	storeTimeout time.Duration
	legacyAuthz  bool
}

func New(store Store, accounts AccountDirectory, opts ...Option) *Service {
	s := &Service{
		store:        store,
		accounts:     accounts,
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

// Create sends a request on behalf of the caller. Recipient details always
// come from the caller's own account.
func (s *Service) Create(ctx context.Context, holder id.AccountID, cmd CreateCommand) (_ *models.Request, err error) {
	ctx, span := s.tracer.Start(ctx, "certrequest.create")
	defer func() { span.End(err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccount(ctx, holder)
	if err != nil {
		return nil, err
	}

	institutionName := strings.TrimSpace(cmd.InstitutionName)
	var institutionID id.AccountID
	if !s.legacyAuthz {
		institution, err := s.accounts.ResolveInstitution(ctx, institutionName)
		if err != nil {
			return nil, err
		}
		institutionID = institution.ID
		institutionName = institution.Name
	}

	req, err := models.NewRequest(id.NewRequestID(), strings.TrimSpace(cmd.Title), institutionID, institutionName,
		account.Name, account.Email, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.store.Create(storeCtx, req); err != nil {
		return nil, wrapRequestErr(err, "failed to create request")
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated()
	}
	s.logger.InfoContext(ctx, "certificate request sent",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_request_id", req.ID.String(),
		"holder_id", holder.String(),
	)
	return req, nil
}

func (s *Service) ListMine(ctx context.Context, caller id.AccountID) ([]*models.Request, error) {
	account, err := s.accounts.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	reqs, err := s.store.ListByRecipientEmail(storeCtx, account.Email)
	if err != nil {
		return nil, wrapRequestErr(err, "failed to list requests")
	}
	return reqs, nil
}

// ListForInstitution returns requests addressed to the caller.
func (s *Service) ListForInstitution(ctx context.Context, caller id.AccountID) ([]*models.Request, error) {
	account, err := s.accounts.GetAccount(ctx, caller)
	if err != nil {
		return nil, err
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	var reqs []*models.Request
	if s.legacyAuthz {
		reqs, err = s.store.ListByInstitutionName(storeCtx, account.Name)
	} else {
		reqs, err = s.store.ListByInstitutionID(storeCtx, account.ID)
	}
	if err != nil {
		return nil, wrapRequestErr(err, "failed to list institution requests")
	}
	return reqs, nil
}

// SetStatus records the institution's decision. Only approved and rejected
// are accepted and a request is decided at most once.
func (s *Service) SetStatus(ctx context.Context, caller id.AccountID, requestID id.RequestID, rawStatus string) (_ *models.Request, err error) {
	ctx, span := s.tracer.Start(ctx, "certrequest.set_status",
		tracer.String("certificate_request_id", requestID.String()),
		tracer.String("status", rawStatus),
	)
	defer func() { span.End(err) }()

	status, err := models.ParseDecision(rawStatus)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	req, err := s.store.Execute(storeCtx, requestID,
		func(r *models.Request) error {
			if !s.legacyAuthz && r.InstitutionID != caller {
				return dErrors.New(dErrors.CodeForbidden, "only the addressed institution can decide this request")
			}
			if r.IsDecided() {
				return dErrors.New(dErrors.CodeConflict, "request has already been "+string(r.Status))
			}
			return nil
		},
		func(r *models.Request) {
			_ = r.Decide(status, now) //nolint:errcheck // state checked in validate
		},
	)
	if err != nil {
		return nil, wrapRequestErr(err, "failed to update request")
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestDecisions(string(status))
	}
	s.logger.InfoContext(ctx, "certificate request decided",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_request_id", req.ID.String(),
		"status", string(status),
		"decided_by", caller.String(),
	)
	return req, nil
}
