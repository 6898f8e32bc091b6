package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credvault/internal/share/models"
	"credvault/internal/share/service"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/httputil"
	"credvault/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, caller id.AccountID, cmd service.CreateCommand) (*models.Share, error)
	ListForRecipient(ctx context.Context, caller id.AccountID) ([]service.SharedCertificate, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/shares", h.HandleCreate)
	r.Get("/shares/mine", h.HandleListMine)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateShareRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	share, err := h.service.Create(ctx, caller, service.CreateCommand{
		CertificateID:  req.CertificateID,
		RecipientEmail: req.RecipientEmail,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "create share failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &ShareEnvelope{
		Message: "Certificate shared",
		Share:   toShareResponse(share),
	})
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views, err := h.service.ListForRecipient(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "list shares failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSharedList(views))
}
