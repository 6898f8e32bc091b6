package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credvault/internal/certrequest/models"
	"credvault/internal/certrequest/service"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/httputil"
	"credvault/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, holder id.AccountID, cmd service.CreateCommand) (*models.Request, error)
	ListMine(ctx context.Context, caller id.AccountID) ([]*models.Request, error)
	ListForInstitution(ctx context.Context, caller id.AccountID) ([]*models.Request, error)
	SetStatus(ctx context.Context, caller id.AccountID, requestID id.RequestID, status string) (*models.Request, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.HandleCreate)
	r.Get("/requests/mine", h.HandleListMine)
	r.Get("/requests/for-institution", h.HandleListForInstitution)
	r.Put("/requests/{id}", h.HandleSetStatus)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateRequestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, caller, service.CreateCommand{
		Title:           req.Title,
		InstitutionName: req.InstitutionName,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "create request failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &RequestEnvelope{Message: "Request sent", Request: toRequestResponse(created)})
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, "list my requests failed", h.service.ListMine)
}

func (h *Handler) HandleListForInstitution(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, "list institution requests failed", h.service.ListForInstitution)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, failure string, list func(context.Context, id.AccountID) ([]*models.Request, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := list(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, failure, "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestList(reqs))
}

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certRequestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.SetStatus(ctx, caller, certRequestID, req.Status)
	if err != nil {
		h.logger.ErrorContext(ctx, "set request status failed", "error", err, "request_id", requestID, "certificate_request_id", certRequestID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RequestEnvelope{
		Message: "Request " + string(updated.Status),
		Request: toRequestResponse(updated),
	})
}
