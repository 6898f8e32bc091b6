package handler

import (
	"time"

	"credvault/internal/share/models"
	"credvault/internal/share/service"
)

type ShareResponse struct {
	ID             string     `json:"id"`
	CertificateID  string     `json:"certificateId"`
	RecipientEmail string     `json:"recipientEmail"`
	SharedByEmail  string     `json:"sharedByEmail"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type ShareEnvelope struct {
	Message string         `json:"message"`
	Share   *ShareResponse `json:"share"`
}

type SharedCertificateResponse struct {
	ID        string     `json:"id"`
	ShareID   string     `json:"shareId"`
	Title     string     `json:"title"`
	Issuer    string     `json:"issuer"`
	Recipient string     `json:"recipient"`
	SharedBy  string     `json:"sharedBy"`
	Date      string     `json:"date"`
	Status    string     `json:"status"`
	FileData  *string    `json:"fileData"`
	FileName  *string    `json:"fileName"`
	FileType  *string    `json:"fileType"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type SharedListResponse struct {
	Shares []*SharedCertificateResponse `json:"shares"`
}

func toShareResponse(s *models.Share) *ShareResponse {
	return &ShareResponse{
		ID:             s.ID.String(),
		CertificateID:  s.CertificateID.String(),
		RecipientEmail: s.RecipientEmail,
		SharedByEmail:  s.SharedByEmail,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
	}
}

func toSharedList(views []service.SharedCertificate) *SharedListResponse {
	out := make([]*SharedCertificateResponse, 0, len(views))
	for _, v := range views {
		out = append(out, &SharedCertificateResponse{
			ID:        v.ID,
			ShareID:   v.ShareID,
			Title:     v.Title,
			Issuer:    v.Issuer,
			Recipient: v.Recipient,
			SharedBy:  v.SharedBy,
			Date:      v.Date,
			Status:    string(v.Status),
			FileData:  orNull(v.FileData),
			FileName:  orNull(v.FileName),
			FileType:  orNull(v.FileType),
			ExpiresAt: v.ExpiresAt,
		})
	}
	return &SharedListResponse{Shares: out}
}

func orNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
