package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/outbox"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

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

const orderColumns = `
id::text, code, customer_id::text, shipping_address, payment_method, note, subtotal, discount_code,
discount, shipping, tax, total, status, cancel_reason, cancelled_at, created_at, updated_at
`

func (r *postgresRepo) Create(ctx context.Context, req domain.NewOrderRequest, now time.Time) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day := now.UTC().Truncate(24 * time.Hour)
	var seq int
	err = tx.QueryRow(ctx, `
INSERT INTO order_code_counters (day, last_seq)
VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET last_seq = order_code_counters.last_seq + 1
RETURNING last_seq
`, day).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("next order code: %w", err)
	}

	o := domain.NewOrder(req, domain.FormatOrderCode(day, seq), now)
	err = tx.QueryRow(ctx, `
INSERT INTO orders (code, customer_id, shipping_address, payment_method, note, subtotal, discount_code,
                    discount, shipping, tax, total, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id::text
`, o.Code, o.CustomerID, o.ShippingAddress, string(o.PaymentMethod), o.Note, o.Subtotal, o.DiscountCode,
		o.Discount, o.Shipping, o.Tax, o.Total, string(o.Status), o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, it := range o.Items {
		attrs := it.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		batch.Queue(`
INSERT INTO order_items (order_id, position, product_id, variant_id, name, image, brand, sku, attributes, unit_price, quantity, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`, o.ID, i, it.ProductID, it.VariantID, it.Name, it.Image, it.Brand, it.SKU, attrs, it.UnitPrice, it.Quantity, it.Subtotal)
	}
	queueTimeline(batch, o.ID, o.Timeline, 0)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert order lines: %w", err)
	}

	if err := outbox.Enqueue(ctx, tx, "order", o.ID, EventCreated, eventFor(&o)); err != nil {
		return nil, fmt.Errorf("enqueue order event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s code=%s total=%d", o.ID, o.Code, o.Total)
	return &o, nil
}

func (r *postgresRepo) Mutate(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := r.load(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	seen := len(o.Timeline)
	if err := fn(o); err != nil {
		return nil, err
	}
	if len(o.Timeline) == seen {
		return o, nil
	}

	_, err = tx.Exec(ctx, `
UPDATE orders
SET status = $2, cancel_reason = $3, cancelled_at = $4, updated_at = $5
WHERE id = $1
`, o.ID, string(o.Status), o.CancelReason, o.CancelledAt, o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	batch := &pgx.Batch{}
	queueTimeline(batch, o.ID, o.Timeline[seen:], seen)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert timeline: %w", err)
	}
	if err := outbox.Enqueue(ctx, tx, "order", o.ID, eventTypeFor(o), eventFor(o)); err != nil {
		return nil, fmt.Errorf("enqueue order event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: id=%s status=%s", o.ID, o.Status)
	return o, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.load(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1`, id)
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	return r.load(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE code = $1`, strings.ToUpper(strings.TrimSpace(code)))
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE customer_id::text = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE customer_id::text = $1
ORDER BY created_at DESC, code DESC
LIMIT $2 OFFSET $3
`, customerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := r.loadChildren(ctx, r.pool, &orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (r *postgresRepo) load(ctx context.Context, q querier, sql string, arg string) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		method string
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.CustomerID,
		&o.ShippingAddress,
		&method,
		&o.Note,
		&o.Subtotal,
		&o.DiscountCode,
		&o.Discount,
		&o.Shipping,
		&o.Tax,
		&o.Total,
		&status,
		&o.CancelReason,
		&o.CancelledAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *postgresRepo) loadChildren(ctx context.Context, q querier, o *domain.Order) error {
	rows, err := q.Query(ctx, `
SELECT product_id, variant_id, name, image, brand, sku, attributes, unit_price, quantity, subtotal
FROM order_items
WHERE order_id = $1
ORDER BY position
`, o.ID)
	if err != nil {
		return err
	}
	o.Items = o.Items[:0]
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.VariantID, &it.Name, &it.Image, &it.Brand, &it.SKU, &it.Attributes, &it.UnitPrice, &it.Quantity, &it.Subtotal); err != nil {
			rows.Close()
			return err
		}
		o.Items = append(o.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
SELECT status, label, description, at
FROM order_timeline
WHERE order_id = $1
ORDER BY seq
`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	o.Timeline = o.Timeline[:0]
	for rows.Next() {
		var (
			e      domain.TimelineEntry
			status string
		)
		if err := rows.Scan(&status, &e.Label, &e.Description, &e.At); err != nil {
			return err
		}
		e.Status = domain.OrderStatus(status)
		o.Timeline = append(o.Timeline, e)
	}
	return rows.Err()
}

func queueTimeline(batch *pgx.Batch, orderID string, entries []domain.TimelineEntry, firstSeq int) {
	for i, e := range entries {
		batch.Queue(`
INSERT INTO order_timeline (order_id, seq, status, label, description, at)
VALUES ($1, $2, $3, $4, $5, $6)
`, orderID, firstSeq+i, string(e.Status), e.Label, e.Description, e.At)
	}
}
