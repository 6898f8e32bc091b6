package handler

import (
	"time"

	"credvault/internal/certificate/models"
	"credvault/internal/certificate/service"
)

type CertificateResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	IssuerName     string     `json:"issuerName"`
	RecipientName  string     `json:"recipientName"`
	RecipientEmail string     `json:"recipientEmail"`
	Status         string     `json:"status"`
	FileData       *string    `json:"fileData"`
	FileName       *string    `json:"fileName"`
	FileType       *string    `json:"fileType"`
	CreatedAt      time.Time  `json:"createdAt"`
	RevokedAt      *time.Time `json:"revokedAt,omitempty"`
}

type CertificateEnvelope struct {
	Message     string               `json:"message,omitempty"`
	Certificate *CertificateResponse `json:"certificate"`
}

type CertificateListResponse struct {
	Certificates []*CertificateResponse `json:"certificates"`
}

type PublicCertificateResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	IssuerName    string    `json:"issuerName"`
	RecipientName string    `json:"recipientName"`
	Status        string    `json:"status"`
	IssueDate     time.Time `json:"issueDate"`
}

type VerificationResponse struct {
	Valid       bool                       `json:"valid"`
	Message     string                     `json:"message,omitempty"`
	Certificate *PublicCertificateResponse `json:"certificate,omitempty"`
}

func toCertificateResponse(c *models.Certificate) *CertificateResponse {
	resp := &CertificateResponse{
		ID:             c.ID.String(),
		Title:          c.Title,
		IssuerName:     c.IssuerName,
		RecipientName:  c.RecipientName,
		RecipientEmail: c.RecipientEmail,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
		RevokedAt:      c.RevokedAt,
	}
	if c.File != nil {
		data, name, ctype := string(c.File.Data), c.File.Name, c.File.ContentType
		resp.FileData, resp.FileName, resp.FileType = &data, &name, &ctype
	}
	return resp
}

func toCertificateList(certs []*models.Certificate) *CertificateListResponse {
	out := make([]*CertificateResponse, 0, len(certs))
	for _, c := range certs {
		out = append(out, toCertificateResponse(c))
	}
	return &CertificateListResponse{Certificates: out}
}

func toVerificationResponse(v service.Verification) *VerificationResponse {
	if !v.Valid || v.Certificate == nil {
		return &VerificationResponse{Valid: false, Message: "Certificate not found"}
	}
	return &VerificationResponse{
		Valid: true,
		Certificate: &PublicCertificateResponse{
			ID:            v.Certificate.ID,
			Title:         v.Certificate.Title,
			IssuerName:    v.Certificate.IssuerName,
			RecipientName: v.Certificate.RecipientName,
			Status:        string(v.Certificate.Status),
			IssueDate:     v.Certificate.IssueDate,
		},
	}
}
