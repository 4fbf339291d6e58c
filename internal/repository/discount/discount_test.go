package discount

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/migrate"
)

func TestNormalize(t *testing.T) {
	if got := Normalize("  sale10 "); got != "SALE10" {
		t.Fatalf("unexpected normalized code %q", got)
	}
}

func TestPostgres_UpsertAndResolve(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE discount_codes`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	repo := NewPostgres(pool)
	if err := repo.Upsert(ctx, domain.DiscountCode{Code: "sale10", Percentage: decimal.RequireFromString("12.5"), Cap: 100000, Active: true}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Resolve(ctx, " Sale10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Code != "SALE10" || !got.Percentage.Equal(decimal.RequireFromString("12.5")) || got.Cap != 100000 || !got.Active {
		t.Fatalf("unexpected code %+v", got)
	}

	if _, err := repo.Resolve(ctx, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
