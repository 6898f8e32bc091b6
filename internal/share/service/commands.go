package service

import (
	"strings"
	"time"

	certmodels "credvault/internal/certificate/models"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

type CreateCommand struct {
	CertificateID  string
	RecipientEmail string
	ExpiresAt      *time.Time
}

func (c *CreateCommand) Validate() (id.CertificateID, error) {
	if strings.TrimSpace(c.RecipientEmail) == "" {
		return id.CertificateID{}, dErrors.New(dErrors.CodeValidation, "recipientEmail is required")
	}
	certID, err := id.ParseCertificateID(strings.TrimSpace(c.CertificateID))
	if err != nil || certID.IsNil() {
		return id.CertificateID{}, dErrors.New(dErrors.CodeValidation, "invalid certificate id")
	}
	return certID, nil
}

// SharedCertificate is what a share recipient sees: the certificate with the
// share's provenance attached.
type SharedCertificate struct {
	ID        string
	ShareID   string
	Title     string
	Issuer    string
	Recipient string
	SharedBy  string
	Date      string
	Status    certmodels.Status
	FileData  string
	FileName  string
	FileType  string
	ExpiresAt *time.Time
}
