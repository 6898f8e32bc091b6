package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"credvault/internal/account/models"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL. The accounts_email_key
// constraint is the authority on email uniqueness.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, name, email, password_hash, role, wallet_id, last_login, last_login_device, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.WalletID,
		account.LastLogin,
		account.LastLoginDevice,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account email must be unique: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uuid.UUID(accountID))
	return scanOne(row, "find account by id")
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanOne(row, "find account by email")
}

func (s *PostgresStore) FindByNameFold(ctx context.Context, name string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE lower(name) = lower($1)
		ORDER BY created_at
		LIMIT 1
	`
	return scanOne(s.db.QueryRowContext(ctx, query, name), "find account by name")
}

func (s *PostgresStore) ListByName(ctx context.Context, name string) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE name = $1 ORDER BY created_at`, name)
	if err != nil {
		return nil, fmt.Errorf("list accounts by name: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, accountID id.AccountID, at time.Time, device string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET last_login = $2, last_login_device = $3, updated_at = $2
		WHERE id = $1
	`, uuid.UUID(accountID), at, device)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update last login rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		a         models.Account
		accountID uuid.UUID
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&accountID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.WalletID,
		&lastLogin, &a.LastLoginDevice, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AccountID(accountID)
	a.Role = id.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return &a, nil
}

func scanOne(row *sql.Row, action string) (*models.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
