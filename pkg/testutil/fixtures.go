package testutil

import (
	"time"

	accountmodels "credvault/internal/account/models"
	certmodels "credvault/internal/certificate/models"
	id "credvault/pkg/domain"
)

// FixedTime is the reference instant fixtures are stamped with.
var FixedTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// AccountBuilder builds accounts with sensible defaults.
type AccountBuilder struct {
	account *accountmodels.Account
}

func NewAccountBuilder() *AccountBuilder {
	return &AccountBuilder{
		account: &accountmodels.Account{
			ID:           id.NewAccountID(),
			Name:         "Test User",
			Email:        "test@example.com",
			PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplaceho",
			Role:         id.RoleIndividual,
			WalletID:     "0x0000000000000000000000000000000000000000",
			CreatedAt:    FixedTime,
			UpdatedAt:    FixedTime,
		},
	}
}

func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.account.Name = name
	return b
}

func (b *AccountBuilder) WithEmail(email string) *AccountBuilder {
	b.account.Email = email
	return b
}

func (b *AccountBuilder) WithRole(role id.Role) *AccountBuilder {
	b.account.Role = role
	return b
}

func (b *AccountBuilder) CreatedAt(t time.Time) *AccountBuilder {
	b.account.CreatedAt = t
	b.account.UpdatedAt = t
	return b
}

func (b *AccountBuilder) Build() *accountmodels.Account {
	cp := *b.account
	return &cp
}

// CertificateBuilder builds verified certificates.
type CertificateBuilder struct {
	cert *certmodels.Certificate
}

func NewCertificateBuilder() *CertificateBuilder {
	return &CertificateBuilder{
		cert: &certmodels.Certificate{
			ID:             id.NewCertificateID(),
			Title:          "B.Tech Computer Science",
			IssuerID:       id.NewAccountID(),
			IssuerName:     "MIT",
			RecipientName:  "Ada",
			RecipientEmail: "a@x.com",
			Status:         certmodels.StatusVerified,
			CreatedAt:      FixedTime,
			UpdatedAt:      FixedTime,
		},
	}
}

func (b *CertificateBuilder) IssuedBy(issuer *accountmodels.Account) *CertificateBuilder {
	b.cert.IssuerID = issuer.ID
	b.cert.IssuerName = issuer.Name
	return b
}

func (b *CertificateBuilder) To(name, email string) *CertificateBuilder {
	b.cert.RecipientName = name
	b.cert.RecipientEmail = email
	return b
}

func (b *CertificateBuilder) WithFile(data, name, contentType string) *CertificateBuilder {
	b.cert.File = &certmodels.File{Data: []byte(data), Name: name, ContentType: contentType}
	return b
}

func (b *CertificateBuilder) CreatedAt(t time.Time) *CertificateBuilder {
	b.cert.CreatedAt = t
	b.cert.UpdatedAt = t
	return b
}

func (b *CertificateBuilder) Build() *certmodels.Certificate {
	cp := *b.cert
	if b.cert.File != nil {
		f := *b.cert.File
		cp.File = &f
	}
	return &cp
}
