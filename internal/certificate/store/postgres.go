package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"credvault/internal/certificate/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

// PostgresStore persists certificates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const certificateColumns = `id, title, issuer_id, issuer_name, recipient_name, recipient_email, status,
	file_data, file_name, file_content_type, created_at, updated_at, revoked_at`

func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	var data []byte
	var fileName, contentType sql.NullString
	if cert.File != nil {
		data = cert.File.Data
		fileName = sql.NullString{String: cert.File.Name, Valid: true}
		contentType = sql.NullString{String: cert.File.ContentType, Valid: true}
	}
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cert.ID),
		cert.Title,
		uuid.UUID(cert.IssuerID),
		cert.IssuerName,
		cert.RecipientName,
		cert.RecipientEmail,
		string(cert.Status),
		data,
		fileName,
		contentType,
		cert.CreatedAt,
		cert.UpdatedAt,
		cert.RevokedAt,
	)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, uuid.UUID(certID))
	cert, err := scanCertificate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) ListByRecipientEmail(ctx context.Context, email string) ([]*models.Certificate, error) {
	return s.list(ctx, "recipient_email = $1", email)
}

func (s *PostgresStore) ListByIssuerName(ctx context.Context, name string) ([]*models.Certificate, error) {
	return s.list(ctx, "issuer_name = $1", name)
}

func (s *PostgresStore) ListByIssuerID(ctx context.Context, issuerID id.AccountID) ([]*models.Certificate, error) {
	return s.list(ctx, "issuer_id = $1", uuid.UUID(issuerID))
}

// Execute locks the row, validates and writes the mutated certificate in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, certID id.CertificateID, validate func(*models.Certificate) error, mutate func(*models.Certificate)) (*models.Certificate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin certificate execute tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1 FOR UPDATE`, uuid.UUID(certID))
	cert, err := scanCertificate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate for execute: %w", err)
	}
	if err := validate(cert); err != nil {
		return nil, err
	}

	mutate(cert)
	_, err = tx.ExecContext(ctx, `
		UPDATE certificates
		SET status = $2, updated_at = $3, revoked_at = $4
		WHERE id = $1
	`, uuid.UUID(cert.ID), string(cert.Status), cert.UpdatedAt, cert.RevokedAt)
	if err != nil {
		return nil, fmt.Errorf("update certificate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit certificate execute: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) list(ctx context.Context, where string, arg any) ([]*models.Certificate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Certificate, 0)
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (*models.Certificate, error) {
	var (
		c           models.Certificate
		certID      uuid.UUID
		issuerID    uuid.NullUUID
		status      string
		data        []byte
		fileName    sql.NullString
		contentType sql.NullString
		revokedAt   sql.NullTime
	)
	if err := row.Scan(&certID, &c.Title, &issuerID, &c.IssuerName, &c.RecipientName, &c.RecipientEmail, &status,
		&data, &fileName, &contentType, &c.CreatedAt, &c.UpdatedAt, &revokedAt); err != nil {
		return nil, err
	}
	c.ID = id.CertificateID(certID)
	if issuerID.Valid {
		c.IssuerID = id.AccountID(issuerID.UUID)
	}
	c.Status = models.Status(status)
	if data != nil || fileName.Valid {
		c.File = &models.File{Data: data, Name: fileName.String, ContentType: contentType.String}
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		c.RevokedAt = &t
	}
	return &c, nil
}
