//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	accountmodels "credvault/internal/account/models"
	"credvault/internal/platform/database"
	"credvault/migrations"
)

// PostgresContainer is a migrated Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("credvault_test"),
		postgres.WithUsername("credvault"),
		postgres.WithPassword("credvault_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open postgres: %v", err)
	}

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	// Shared by the Manager across suites; Ryuk reaps it when the process exits.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateAll empties every table between tests.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	for _, table := range []string{"shares", "certificate_requests", "certificates", "accounts"} {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// CreateTestAccount inserts acc directly, bypassing the store under test.
func (p *PostgresContainer) CreateTestAccount(ctx context.Context, t testing.TB, acc *accountmodels.Account) {
	t.Helper()
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, role, wallet_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, acc.ID.String(), acc.Name, acc.Email, acc.PasswordHash, string(acc.Role), acc.WalletID, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		t.Fatalf("CreateTestAccount: %v", err)
	}
}

func (p *PostgresContainer) CountRows(ctx context.Context, t testing.TB, table string) int {
	t.Helper()
	var n int
	if err := p.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
