package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	certmodels "credvault/internal/certificate/models"
	"credvault/internal/share/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

// PostgresStore persists shares; certificate_id is a real foreign key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, share *models.Share) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shares (id, certificate_id, recipient_email, shared_by_email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.UUID(share.ID),
		uuid.UUID(share.CertificateID),
		share.RecipientEmail,
		share.SharedByEmail,
		share.ExpiresAt,
		share.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("share references unknown certificate: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create share: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipientEmail(ctx context.Context, email string) ([]models.SharedCertificate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.certificate_id, s.recipient_email, s.shared_by_email, s.expires_at, s.created_at,
		       c.id, c.title, c.issuer_id, c.issuer_name, c.recipient_name, c.recipient_email, c.status,
		       c.file_data, c.file_name, c.file_content_type, c.created_at, c.updated_at, c.revoked_at
		FROM shares s
		LEFT JOIN certificates c ON c.id = s.certificate_id
		WHERE s.recipient_email = $1
		ORDER BY s.created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	out := make([]models.SharedCertificate, 0)
	for rows.Next() {
		joined, err := scanJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		out = append(out, joined)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shares WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired shares: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired shares rows: %w", err)
	}
	return int(n), nil
}

func scanJoined(rows *sql.Rows) (models.SharedCertificate, error) {
	var (
		sh          models.Share
		shareID     uuid.UUID
		certRef     uuid.UUID
		expiresAt   sql.NullTime
		certID      uuid.NullUUID
		title       sql.NullString
		issuerID    uuid.NullUUID
		issuerName  sql.NullString
		recipName   sql.NullString
		recipEmail  sql.NullString
		status      sql.NullString
		data        []byte
		fileName    sql.NullString
		contentType sql.NullString
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
		revokedAt   sql.NullTime
	)
	if err := rows.Scan(&shareID, &certRef, &sh.RecipientEmail, &sh.SharedByEmail, &expiresAt, &sh.CreatedAt,
		&certID, &title, &issuerID, &issuerName, &recipName, &recipEmail, &status,
		&data, &fileName, &contentType, &createdAt, &updatedAt, &revokedAt); err != nil {
		return models.SharedCertificate{}, err
	}
	sh.ID = id.ShareID(shareID)
	sh.CertificateID = id.CertificateID(certRef)
	if expiresAt.Valid {
		t := expiresAt.Time
		sh.ExpiresAt = &t
	}
	out := models.SharedCertificate{Share: &sh}
	if !certID.Valid {
		return out, nil
	}

	cert := &certmodels.Certificate{
		ID:             id.CertificateID(certID.UUID),
		Title:          title.String,
		IssuerName:     issuerName.String,
		RecipientName:  recipName.String,
		RecipientEmail: recipEmail.String,
		Status:         certmodels.Status(status.String),
		CreatedAt:      createdAt.Time,
		UpdatedAt:      updatedAt.Time,
	}
	if issuerID.Valid {
		cert.IssuerID = id.AccountID(issuerID.UUID)
	}
	if data != nil || fileName.Valid {
		cert.File = &certmodels.File{Data: data, Name: fileName.String, ContentType: contentType.String}
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		cert.RevokedAt = &t
	}
	out.Certificate = cert
	return out, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
