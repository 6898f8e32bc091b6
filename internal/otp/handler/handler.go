package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"credvault/internal/otp"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/httputil"
	"credvault/pkg/platform/privacy"
	"credvault/pkg/platform/validation"
	"credvault/pkg/requestcontext"
)

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *SendCodeRequest) Normalize() {
	if r != nil {
		r.Email = strings.TrimSpace(r.Email)
	}
}

func (r *SendCodeRequest) Validate() error {
	if r == nil || r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "Email required")
	}
	return validation.Validate(r)
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,numeric,len=6"`
}

func (r *VerifyCodeRequest) Normalize() {
	if r != nil {
		r.Email = strings.TrimSpace(r.Email)
		r.Code = strings.TrimSpace(r.Code)
	}
}

func (r *VerifyCodeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Handler struct {
	verifier otp.Verifier
	logger   *slog.Logger
}

func New(verifier otp.Verifier, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/otp", h.HandleSend)
	r.Post("/otp/verify", h.HandleVerify)
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SendCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	// The reply never reveals whether delivery worked.
	if err := h.verifier.Send(ctx, req.Email); err != nil {
		h.logger.ErrorContext(ctx, "send one-time code failed",
			"error", err,
			"email", privacy.MaskEmail(req.Email),
			"request_id", requestID,
		)
	}
	httputil.WriteJSON(w, http.StatusOK, &Response{Success: true, Message: "OTP sent successfully"})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	valid, err := h.verifier.Verify(ctx, req.Email, req.Code)
	if err != nil {
		h.logger.ErrorContext(ctx, "verify one-time code failed", "error", err, "request_id", requestID)
	}
	if err != nil || !valid {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired code"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &Response{Success: true, Message: "OTP verified"})
}
