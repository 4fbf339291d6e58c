package address

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const addressColumns = `
id::text, customer_id::text, recipient_name, phone, street, ward, district, province, is_default, created_at
`

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]domain.Address, error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE customer_id = $1 ORDER BY is_default DESC, created_at ASC`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		r.logger.Printf("address repo: list customer_id=%s error=%v", customerID, err)
		return nil, err
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, customerID, id string) (*domain.Address, error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE customer_id = $1 AND id::text = $2`
	a, err := scanAddress(r.pool.QueryRow(ctx, q, customerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Address) (*domain.Address, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if a.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE customer_id = $1 AND is_default`, a.CustomerID); err != nil {
			return nil, err
		}
	}
	q := `
INSERT INTO addresses (customer_id, recipient_name, phone, street, ward, district, province, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + addressColumns
	out, err := scanAddress(tx.QueryRow(ctx, q, a.CustomerID, a.RecipientName, a.Phone, a.Street, a.Ward, a.District, a.Province, a.IsDefault))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// SetDefault marks id as the customer's only default address.
func (r *postgresRepo) SetDefault(ctx context.Context, customerID, id string) (*domain.Address, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// lock the customer's rows so two concurrent calls cannot both win
	if _, err := tx.Exec(ctx, `SELECT id FROM addresses WHERE customer_id = $1 FOR UPDATE`, customerID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE customer_id = $1 AND is_default AND id::text <> $2`, customerID, id); err != nil {
		return nil, err
	}
	q := `UPDATE addresses SET is_default = TRUE WHERE customer_id = $1 AND id::text = $2 RETURNING ` + addressColumns
	out, err := scanAddress(tx.QueryRow(ctx, q, customerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("address repo: default customer_id=%s id=%s", customerID, id)
	return out, nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	if err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.RecipientName,
		&a.Phone,
		&a.Street,
		&a.Ward,
		&a.District,
		&a.Province,
		&a.IsDefault,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
