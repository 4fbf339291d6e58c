package product

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/migrate"
)

func TestPostgres_UpsertAndGetVariant(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	sale := int64(450000)
	_, err := repo.Upsert(ctx, domain.Variant{
		ProductID:  "p1",
		VariantID:  "v-red-m",
		SKU:        "SKU-P1-RED-M",
		Name:       "Cotton Tee",
		Brand:      "Local Brand",
		Attributes: map[string]string{"color": "red", "size": "M"},
		PriceList:  500000,
		PriceSale:  &sale,
		Stock:      4,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetVariant(ctx, "p1", "v-red-m")
	if err != nil {
		t.Fatalf("GetVariant: %v", err)
	}
	if got.Stock != 4 || got.PriceSale == nil || *got.PriceSale != sale || got.Attributes["color"] != "red" {
		t.Fatalf("unexpected variant %+v", got)
	}

	got.Stock = 0
	got.PriceSale = nil
	if _, err := repo.Upsert(ctx, *got); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	updated, err := repo.GetVariant(ctx, "p1", "v-red-m")
	if err != nil {
		t.Fatalf("GetVariant updated: %v", err)
	}
	if updated.Stock != 0 || updated.PriceSale != nil {
		t.Fatalf("update not applied %+v", updated)
	}

	list, err := repo.ListByProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByProduct: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(list))
	}

	if _, err := repo.GetVariant(ctx, "p1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
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

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE product_variants`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
