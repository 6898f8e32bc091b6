package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credvault/internal/certificate/models"
	"credvault/internal/certificate/service"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/httputil"
	"credvault/pkg/requestcontext"
)

type Service interface {
	Issue(ctx context.Context, issuer id.AccountID, cmd service.IssueCommand) (*models.Certificate, error)
	ListMine(ctx context.Context, caller id.AccountID) ([]*models.Certificate, error)
	ListIssued(ctx context.Context, caller id.AccountID) ([]*models.Certificate, error)
	Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	Revoke(ctx context.Context, caller id.AccountID, certID id.CertificateID) (*models.Certificate, error)
	VerifyPublic(ctx context.Context, rawID string) service.Verification
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{id}", h.HandleVerify)
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.HandleIssue)
	r.Get("/certificates/mine", h.HandleListMine)
	r.Get("/certificates/issued", h.HandleListIssued)
	r.Get("/certificates/{id}", h.HandleGet)
	r.Put("/certificates/{id}/revoke", h.HandleRevoke)
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueCertificateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cmd := service.IssueCommand{
		Title:          req.Title,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
	}
	if req.FileData != "" || req.FileName != "" {
		cmd.File = &models.File{Data: []byte(req.FileData), Name: req.FileName, ContentType: req.FileType}
	}

	cert, err := h.service.Issue(ctx, caller, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue certificate failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &CertificateEnvelope{
		Message:     "Certificate issued",
		Certificate: toCertificateResponse(cert),
	})
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, "list my certificates failed", h.service.ListMine)
}

func (h *Handler) HandleListIssued(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, "list issued certificates failed", h.service.ListIssued)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, failure string, list func(context.Context, id.AccountID) ([]*models.Certificate, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	certs, err := list(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, failure, "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCertificateList(certs))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	cert, err := h.service.Get(ctx, certID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get certificate failed", "error", err, "request_id", requestID, "certificate_id", certID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CertificateEnvelope{Certificate: toCertificateResponse(cert)})
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccountID(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	cert, err := h.service.Revoke(ctx, caller, certID)
	if err != nil {
		h.logger.ErrorContext(ctx, "revoke certificate failed", "error", err, "request_id", requestID, "certificate_id", certID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CertificateEnvelope{
		Message:     "Certificate revoked successfully",
		Certificate: toCertificateResponse(cert),
	})
}

// HandleVerify is public. Anything other than a found certificate is a 404
// with valid=false.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	result := h.service.VerifyPublic(r.Context(), chi.URLParam(r, "id"))
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, toVerificationResponse(result))
}
