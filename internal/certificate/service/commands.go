package service

import (
	"strings"
	"time"

	"credvault/internal/certificate/models"
	dErrors "credvault/pkg/domain-errors"
)

const defaultContentType = "application/octet-stream"

type IssueCommand struct {
	Title          string
	RecipientName  string
	RecipientEmail string
	File           *models.File
}

func (c *IssueCommand) Validate() error {
	if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.RecipientName) == "" || strings.TrimSpace(c.RecipientEmail) == "" {
		return dErrors.New(dErrors.CodeValidation, "title, recipientName and recipientEmail are required")
	}
	return nil
}

func (c *IssueCommand) file() *models.File {
	if c.File == nil || (len(c.File.Data) == 0 && c.File.Name == "") {
		return nil
	}
	f := *c.File
	if f.ContentType == "" {
		f.ContentType = defaultContentType
	}
	return &f
}

// PublicCertificate is the redacted projection served without authentication.
// It never includes the attached file.
type PublicCertificate struct {
	ID            string
	Title         string
	IssuerName    string
	RecipientName string
	Status        models.Status
	IssueDate     time.Time
}

type Verification struct {
	Valid       bool
	Certificate *PublicCertificate
}
