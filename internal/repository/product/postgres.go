package product

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

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const variantColumns = `
product_id, variant_id, product_key, sku, name, brand, image, attributes, price_list, price_sale, stock, updated_at
`

func (r *postgresRepo) GetVariant(ctx context.Context, productID, variantID string) (*domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 AND variant_id = $2`
	v, err := scanVariant(r.pool.QueryRow(ctx, q, productID, variantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get product_id=%s variant_id=%s not found", productID, variantID)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get product_id=%s variant_id=%s error=%v", productID, variantID, err)
		return nil, err
	}
	return v, nil
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 ORDER BY variant_id`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		r.logger.Printf("product repo: list product_id=%s error=%v", productID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	attrs := v.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	q := `
INSERT INTO product_variants (product_id, variant_id, product_key, sku, name, brand, image, attributes, price_list, price_sale, stock, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (product_id, variant_id) DO UPDATE SET
    product_key = EXCLUDED.product_key,
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    brand = EXCLUDED.brand,
    image = EXCLUDED.image,
    attributes = EXCLUDED.attributes,
    price_list = EXCLUDED.price_list,
    price_sale = EXCLUDED.price_sale,
    stock = EXCLUDED.stock,
    updated_at = now()
RETURNING ` + variantColumns
	out, err := scanVariant(r.pool.QueryRow(ctx, q,
		v.ProductID, v.VariantID, v.ProductKey, v.SKU, v.Name, v.Brand, v.Image, attrs, v.PriceList, v.PriceSale, v.Stock,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", v.SKU, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted product_id=%s variant_id=%s stock=%d", out.ProductID, out.VariantID, out.Stock)
	return out, nil
}

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	if err := row.Scan(
		&v.ProductID,
		&v.VariantID,
		&v.ProductKey,
		&v.SKU,
		&v.Name,
		&v.Brand,
		&v.Image,
		&v.Attributes,
		&v.PriceList,
		&v.PriceSale,
		&v.Stock,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
