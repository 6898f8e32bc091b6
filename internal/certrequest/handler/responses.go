package handler

import (
	"time"

	"credvault/internal/certrequest/models"
)

type RequestResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	InstitutionName string     `json:"institutionName"`
	RecipientName   string     `json:"recipientName"`
	RecipientEmail  string     `json:"recipientEmail"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
}

type RequestEnvelope struct {
	Message string           `json:"message"`
	Request *RequestResponse `json:"request"`
}

type RequestListResponse struct {
	Requests []*RequestResponse `json:"requests"`
}

func toRequestResponse(r *models.Request) *RequestResponse {
	return &RequestResponse{
		ID:              r.ID.String(),
		Title:           r.Title,
		InstitutionName: r.InstitutionName,
		RecipientName:   r.RecipientName,
		RecipientEmail:  r.RecipientEmail,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		DecidedAt:       r.DecidedAt,
	}
}

func toRequestList(reqs []*models.Request) *RequestListResponse {
	out := make([]*RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return &RequestListResponse{Requests: out}
}
