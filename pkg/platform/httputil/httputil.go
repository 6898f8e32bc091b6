package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/requestcontext"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError translates a domain error into its HTTP status and envelope.
// Internal and store failures get a fixed description so storage error text
// never reaches clients.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            DomainCodeToHTTPCode(dErrors.CodeInternal),
			ErrorDescription: "internal server error",
		})
		return
	}

	resp := ErrorResponse{
		Error:            DomainCodeToHTTPCode(domainErr.Code),
		ErrorDescription: domainErr.Message,
	}
	switch domainErr.Code {
	case dErrors.CodeInternal:
		resp.ErrorDescription = "internal server error"
	case dErrors.CodeUnavailable:
		resp.ErrorDescription = "service temporarily unavailable, please retry"
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), resp)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeInvariantViolation, dErrors.CodeDuplicateKey:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeDuplicateKey:
		return "duplicate_key"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodePayloadTooLarge:
		return "payload_too_large"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeUnavailable:
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

// RequireAccountID returns the caller resolved by the auth middleware.
// A nil id here means a route was mounted outside RequireAuth.
func RequireAccountID(ctx context.Context, logger *slog.Logger) (id.AccountID, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "account id missing from context despite auth middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return id.AccountID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return accountID, nil
}
