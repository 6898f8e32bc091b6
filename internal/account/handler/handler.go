package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credvault/internal/account/models"
	"credvault/internal/account/service"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/httputil"
	"credvault/pkg/requestcontext"
)

// Service defines the account operations the handler needs.
type Service interface {
	Signup(ctx context.Context, cmd service.SignupCommand) (*models.Account, string, error)
	Login(ctx context.Context, cmd service.LoginCommand) (*models.Account, string, error)
	Me(ctx context.Context, caller id.AccountID) (*models.Account, error)
	VerifyUser(ctx context.Context, name string) (*models.Account, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/accounts", h.HandleSignup)
	r.Post("/sessions", h.HandleLogin)
	r.Post("/verify-user", h.HandleVerifyUser)
}

// Register mounts routes that expect RequireAuth in front of them.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, token, err := h.service.Signup(ctx, service.SignupCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		WalletID: req.WalletID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "signup failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &SessionResponse{
		Message: "Account created successfully",
		Token:   token,
		Account: toAccountResponse(account),
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, token, err := h.service.Login(ctx, service.LoginCommand{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.logger.ErrorContext(ctx, "login failed", "error", err, "request_id", requestID)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &SessionResponse{
		Message: "Login successful",
		Token:   token,
		Account: toAccountResponse(account),
	})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.service.Me(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "get me failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &MeResponse{Account: toAccountResponse(account)})
}

func (h *Handler) HandleVerifyUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.VerifyUser(ctx, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &VerifyUserResponse{
		Success: true,
		Name:    account.Name,
		Email:   account.Email,
	})
}
