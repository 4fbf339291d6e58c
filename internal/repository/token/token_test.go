package token

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/migrate"
)

func TestPostgres_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE tokens, customers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	var customerID string
	if err := pool.QueryRow(ctx, `INSERT INTO customers (email) VALUES ('token@example.com') RETURNING id::text`).Scan(&customerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	repo := NewPostgres(pool)
	now := time.Now().UTC()
	if err := repo.Create(ctx, Token{Token: "live-token", CustomerID: customerID, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "live-token", CustomerID: customerID, ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "old-token", CustomerID: customerID, ExpiresAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("Create old: %v", err)
	}

	var stored int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM tokens WHERE token_hash = 'live-token'`).Scan(&stored); err != nil {
		t.Fatalf("count raw: %v", err)
	}
	if stored != 0 {
		t.Fatalf("raw token must not be stored")
	}

	got, err := repo.Get(ctx, "live-token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerID != customerID || got.Kind != KindAccess || got.Token != "live-token" {
		t.Fatalf("unexpected token %+v", got)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired token removed, got %d", n)
	}

	if err := repo.Delete(ctx, "live-token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "live-token"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}
