package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"credvault/internal/certrequest/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, title, institution_id, institution_name, recipient_name, recipient_email,
	status, created_at, updated_at, decided_at`

func (s *PostgresStore) Create(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO certificate_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID),
		req.Title,
		institutionRef(req.InstitutionID),
		req.InstitutionName,
		req.RecipientName,
		req.RecipientEmail,
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
		req.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM certificate_requests WHERE id = $1`, uuid.UUID(requestID))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListByRecipientEmail(ctx context.Context, email string) ([]*models.Request, error) {
	return s.list(ctx, "recipient_email = $1", email)
}

func (s *PostgresStore) ListByInstitutionName(ctx context.Context, name string) ([]*models.Request, error) {
	return s.list(ctx, "institution_name = $1", name)
}

func (s *PostgresStore) ListByInstitutionID(ctx context.Context, institutionID id.AccountID) ([]*models.Request, error) {
	return s.list(ctx, "institution_id = $1", uuid.UUID(institutionID))
}

// Execute decides a request under a row lock so two concurrent decisions
// cannot both pass validation.
func (s *PostgresStore) Execute(ctx context.Context, requestID id.RequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin request execute tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM certificate_requests WHERE id = $1 FOR UPDATE`, uuid.UUID(requestID))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find request for execute: %w", err)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	mutate(req)
	if _, err := tx.ExecContext(ctx, `
		UPDATE certificate_requests
		SET status = $2, updated_at = $3, decided_at = $4
		WHERE id = $1
	`, uuid.UUID(req.ID), string(req.Status), req.UpdatedAt, req.DecidedAt); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit request execute: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) list(ctx context.Context, where string, arg any) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM certificate_requests WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		r             models.Request
		requestID     uuid.UUID
		institutionID uuid.NullUUID
		status        string
		decidedAt     sql.NullTime
	)
	if err := row.Scan(&requestID, &r.Title, &institutionID, &r.InstitutionName, &r.RecipientName, &r.RecipientEmail,
		&status, &r.CreatedAt, &r.UpdatedAt, &decidedAt); err != nil {
		return nil, err
	}
	r.ID = id.RequestID(requestID)
	if institutionID.Valid {
		r.InstitutionID = id.AccountID(institutionID.UUID)
	}
	r.Status = models.Status(status)
	if decidedAt.Valid {
		t := decidedAt.Time
		r.DecidedAt = &t
	}
	return &r, nil
}

// institutionRef stores requests made in legacy mode without an institution link.
func institutionRef(institutionID id.AccountID) uuid.NullUUID {
	if institutionID.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(institutionID), Valid: true}
}
