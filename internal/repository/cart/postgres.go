package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const cartColumns = `
id::text, customer_id::text, discount_code, discount_percentage::text, discount_cap, discount_min_subtotal,
item_count, subtotal, discount_amount, shipping, total, created_at, updated_at
`

// Ensure returns the customer's cart, creating an empty one on first access.
func (r *postgresRepo) Ensure(ctx context.Context, customerID string) (*domain.Cart, error) {
	q := `
INSERT INTO carts (customer_id)
VALUES ($1)
ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
RETURNING ` + cartColumns
	return r.fetchCart(ctx, r.pool.QueryRow(ctx, q, customerID))
}

func (r *postgresRepo) GetByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	q := `SELECT ` + cartColumns + ` FROM carts WHERE customer_id = $1`
	return r.fetchCart(ctx, r.pool.QueryRow(ctx, q, customerID))
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		code        *string
		pct         *string
		capAmount   *int64
		minSubtotal *int64
	)
	if d := cart.Discount; d != nil {
		p := d.Percentage.String()
		code, pct, capAmount, minSubtotal = &d.Code, &p, &d.Cap, &d.MinSubtotal
	}

	now := time.Now().UTC()
	cmd, err := tx.Exec(ctx, `
UPDATE carts
SET discount_code = $2,
    discount_percentage = $3::numeric,
    discount_cap = $4,
    discount_min_subtotal = $5,
    item_count = $6,
    subtotal = $7,
    discount_amount = $8,
    shipping = $9,
    total = $10,
    updated_at = $11
WHERE id = $1
`, cart.ID, code, pct, capAmount, minSubtotal, cart.ItemCount, cart.Subtotal, cart.DiscountAmount, cart.Shipping, cart.Total, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}

	if len(cart.Lines) > 0 {
		batch := &pgx.Batch{}
		for i, l := range cart.Lines {
			attrs := l.Attributes
			if attrs == nil {
				attrs = map[string]string{}
			}
			batch.Queue(`
INSERT INTO cart_lines (id, cart_id, position, product_id, variant_id, quantity, name, image, brand, sku, attributes, price_list, price_sale, stock, added_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`, l.ID, cart.ID, i, l.ProductID, l.VariantID, l.Quantity, l.Name, l.Image, l.Brand, l.SKU, attrs, l.PriceList, l.PriceSale, l.Stock, l.AddedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert cart lines: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	cart.UpdatedAt = now
	r.logger.Printf("cart repo: saved cart_id=%s lines=%d total=%d", cart.ID, len(cart.Lines), cart.Total)
	return nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, row pgx.Row) (*domain.Cart, error) {
	var (
		cart        domain.Cart
		code        *string
		pct         *string
		capAmount   *int64
		minSubtotal *int64
	)
	err := row.Scan(
		&cart.ID,
		&cart.CustomerID,
		&code,
		&pct,
		&capAmount,
		&minSubtotal,
		&cart.ItemCount,
		&cart.Subtotal,
		&cart.DiscountAmount,
		&cart.Shipping,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if code != nil && pct != nil {
		percentage, err := decimal.NewFromString(*pct)
		if err != nil {
			r.logger.Printf("cart repo: decode discount cart_id=%s err=%v", cart.ID, err)
			return nil, err
		}
		cart.Discount = &domain.DiscountApplication{
			Code:       *code,
			Percentage: percentage,
			Amount:     cart.DiscountAmount,
		}
		if capAmount != nil {
			cart.Discount.Cap = *capAmount
		}
		if minSubtotal != nil {
			cart.Discount.MinSubtotal = *minSubtotal
		}
	}

	const linesQuery = `
SELECT id::text, product_id, variant_id, quantity, name, image, brand, sku, attributes, price_list, price_sale, stock, added_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.VariantID,
			&line.Quantity,
			&line.Name,
			&line.Image,
			&line.Brand,
			&line.SKU,
			&line.Attributes,
			&line.PriceList,
			&line.PriceSale,
			&line.Stock,
			&line.AddedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}
