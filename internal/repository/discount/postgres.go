package discount

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Resolve(ctx context.Context, code string) (*domain.DiscountCode, error) {
	const q = `
SELECT code, percentage::text, cap, min_subtotal, expires_at, active
FROM discount_codes
WHERE code = $1
`
	var (
		out domain.DiscountCode
		pct string
	)
	err := r.pool.QueryRow(ctx, q, Normalize(code)).Scan(&out.Code, &pct, &out.Cap, &out.MinSubtotal, &out.ExpiresAt, &out.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	out.Percentage, err = decimal.NewFromString(pct)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, code domain.DiscountCode) error {
	const q = `
INSERT INTO discount_codes (code, percentage, cap, min_subtotal, expires_at, active)
VALUES ($1, $2::numeric, $3, $4, $5, $6)
ON CONFLICT (code) DO UPDATE SET
    percentage = EXCLUDED.percentage,
    cap = EXCLUDED.cap,
    min_subtotal = EXCLUDED.min_subtotal,
    expires_at = EXCLUDED.expires_at,
    active = EXCLUDED.active
`
	_, err := r.pool.Exec(ctx, q, Normalize(code.Code), code.Percentage.String(), code.Cap, code.MinSubtotal, code.ExpiresAt, code.Active)
	return err
}

// Normalize is the canonical form codes are stored and compared in.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
