package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"credvault/internal/account/device"
	"credvault/internal/account/models"
	"credvault/internal/platform/metrics"
	"credvault/internal/platform/tracer"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/privacy"
	"credvault/pkg/platform/sentinel"
	"credvault/pkg/requestcontext"
	"credvault/pkg/secrets"
)

// Service owns signup, login and account lookups.
type Service struct {
	store        Store
	hasher       PasswordHasher
	tokens       TokenIssuer
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	storeTimeout time.Duration
}

func New(store Store, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:        store,
		hasher:       hasher,
		tokens:       tokens,
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

// Signup creates an account and returns it with a session token.
func (s *Service) Signup(ctx context.Context, cmd SignupCommand) (_ *models.Account, _ string, err error) {
	ctx, span := s.tracer.Start(ctx, "account.signup")
	defer func() { span.End(err) }()

	role, err := cmd.Validate()
	if err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, "", err
	}

	walletID := strings.TrimSpace(cmd.WalletID)
	if walletID == "" {
		suffix, err := secrets.RandomHex(20)
		if err != nil {
			return nil, "", err
		}
		walletID = "0x" + suffix
	}

	now := requestcontext.Now(ctx)
	account, err := models.NewAccount(id.NewAccountID(), strings.TrimSpace(cmd.Name), strings.TrimSpace(cmd.Email), hash, role, walletID, now)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid account")
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.store.Create(storeCtx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, "", dErrors.New(dErrors.CodeDuplicateKey, "an account with this email already exists")
		}
		return nil, "", wrapAccountErr(err, "failed to create account")
	}

	token, err := s.tokens.IssueToken(ctx, account.ID, account.Role)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if s.metrics != nil {
		s.metrics.IncrementAccountsCreated()
	}
	s.logger.InfoContext(ctx, "account created",
		"account_id", account.ID.String(),
		"role", string(account.Role),
		"email", privacy.MaskEmail(account.Email),
		"request_id", requestcontext.RequestID(ctx),
	)
	return account, token, nil
}

// Login checks credentials and records the login device. Unknown email, wrong
// password and internal failures all produce the same error after the same
// bcrypt work.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (_ *models.Account, _ string, err error) {
	ctx, span := s.tracer.Start(ctx, "account.login")
	defer func() { span.End(err) }()

	if err := cmd.Validate(); err != nil {
		return nil, "", err
	}

	storeCtx, cancel := s.withStoreTimeout(ctx)
	account, err := s.store.FindByEmail(storeCtx, cmd.Email)
	cancel()
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "login lookup failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		s.hasher.BurnCompare(cmd.Password)
		s.loginFailed(ctx, cmd.Email)
		return nil, "", errInvalidCredentials
	}

	if err := s.hasher.Verify(cmd.Password, account.PasswordHash); err != nil {
		s.loginFailed(ctx, cmd.Email)
		return nil, "", errInvalidCredentials
	}

	now := requestcontext.Now(ctx)
	label := device.Label(cmd.UserAgent)
	storeCtx, cancel = s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.store.UpdateLastLogin(storeCtx, account.ID, now, label); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			"account_id", account.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		account.RecordLogin(now, label)
	}

	token, err := s.tokens.IssueToken(ctx, account.ID, account.Role)
	if err != nil {
		s.logger.ErrorContext(ctx, "login token issue failed",
			"account_id", account.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, "", errInvalidCredentials
	}
	return account, token, nil
}

func (s *Service) loginFailed(ctx context.Context, email string) {
	if s.metrics != nil {
		s.metrics.IncrementLoginFailures()
	}
	s.logger.InfoContext(ctx, "login rejected",
		"email", privacy.MaskEmail(email),
		"request_id", requestcontext.RequestID(ctx),
	)
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, caller id.AccountID) (*models.Account, error) {
	return s.GetAccount(ctx, caller)
}

// GetAccount loads an account by id. Other engines use it to resolve the caller.
func (s *Service) GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	account, err := s.store.FindByID(storeCtx, accountID)
	if err != nil {
		return nil, wrapAccountErr(err, "failed to load account")
	}
	return account, nil
}

// VerifyUser looks an account up by display name, ignoring case. Every
// failure, including store errors, reads as not found.
func (s *Service) VerifyUser(ctx context.Context, name string) (*models.Account, error) {
	notFound := dErrors.New(dErrors.CodeNotFound, "user not found")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, notFound
	}
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	account, err := s.store.FindByNameFold(storeCtx, name)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "verify user lookup failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, notFound
	}
	return account, nil
}

// ResolveInstitution maps a display name to the single institution account
// carrying exactly that name (case-sensitive). Unknown and ambiguous names are
// both rejected.
func (s *Service) ResolveInstitution(ctx context.Context, name string) (*models.Account, error) {
	storeCtx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	accounts, err := s.store.ListByName(storeCtx, strings.TrimSpace(name))
	if err != nil {
		return nil, wrapAccountErr(err, "failed to resolve institution")
	}
	var match *models.Account
	for _, a := range accounts {
		if !a.IsInstitution() {
			continue
		}
		if match != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "institution name is ambiguous")
		}
		match = a
	}
	if match == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown institution")
	}
	return match, nil
}
