package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
	addressrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/address"
	customerrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/customer"
	discountrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/discount"
	productrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/product"
	tokenrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/token"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/session"
)

const (
	DemoEmail = "demo@example.com"
	tokenTTL  = 30 * 24 * time.Hour
)

func price(v int64) *int64 { return &v }

var variants = []domain.Variant{
	{ProductID: "p-tee", ProductKey: "cotton-tee", VariantID: "v-red-m", SKU: "TEE-RED-M", Name: "Cotton Tee", Brand: "Local Brand",
		Attributes: map[string]string{"color": "red", "size": "M"}, PriceList: 250000, PriceSale: price(199000), Stock: 12},
	{ProductID: "p-tee", ProductKey: "cotton-tee", VariantID: "v-red-l", SKU: "TEE-RED-L", Name: "Cotton Tee", Brand: "Local Brand",
		Attributes: map[string]string{"color": "red", "size": "L"}, PriceList: 250000, Stock: 2},
	{ProductID: "p-shirt", ProductKey: "linen-shirt", VariantID: "v-white-m", SKU: "SHIRT-WHITE-M", Name: "Linen Shirt", Brand: "Atelier",
		Attributes: map[string]string{"color": "white", "size": "M"}, PriceList: 1000000, PriceSale: price(900000), Stock: 5},
	{ProductID: "p-mug", ProductKey: "ceramic-mug", VariantID: "v-white", SKU: "MUG-WHITE", Name: "Ceramic Mug",
		Attributes: map[string]string{"color": "white"}, PriceList: 90000, Stock: 0},
}

var discounts = []domain.DiscountCode{
	{Code: "SALE10", Percentage: decimal.NewFromInt(10), Cap: 100000, Active: true},
	{Code: "HALF", Percentage: decimal.NewFromInt(50), Active: true},
	{Code: "BIG20", Percentage: decimal.NewFromInt(20), Cap: 300000, MinSubtotal: 1000000, Active: true},
	{Code: "RETIRED", Percentage: decimal.NewFromInt(15), Active: false},
}

var addresses = []domain.Address{
	{RecipientName: "Nguyen Van A", Phone: "0901234567", Street: "12 Le Loi", Ward: "Ben Nghe", District: "District 1", Province: "Ho Chi Minh City", IsDefault: true},
	{RecipientName: "Nguyen Van A", Phone: "0901234567", Street: "8 Trang Tien", Ward: "Hoan Kiem", District: "Hoan Kiem", Province: "Ha Noi"},
}

// Apply inserts demo data for manual testing and returns a fresh bearer token
// for the demo customer. Catalog rows are upserted; the customer and address
// book are only created when missing.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) (string, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	products := productrepo.NewPostgres(pool, logger)
	codes := discountrepo.NewPostgres(pool)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, v := range variants {
		g.Go(func() error {
			if _, err := products.Upsert(gctx, v); err != nil {
				return fmt.Errorf("upsert variant %s/%s: %w", v.ProductID, v.VariantID, err)
			}
			return nil
		})
	}
	for _, d := range discounts {
		g.Go(func() error {
			if err := codes.Upsert(gctx, d); err != nil {
				return fmt.Errorf("upsert discount %s: %w", d.Code, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	logger.Printf("seed: %d variants, %d discount codes", len(variants), len(discounts))

	customers := customerrepo.NewPostgres(pool, logger)
	cust, err := customers.GetByEmail(ctx, DemoEmail)
	if errors.Is(err, domain.ErrNotFound) {
		cust, err = customers.Create(ctx, domain.Customer{Email: DemoEmail, FullName: "Nguyen Van A"})
	}
	if err != nil {
		return "", fmt.Errorf("ensure demo customer: %w", err)
	}

	book := addressrepo.NewPostgres(pool, logger)
	existing, err := book.List(ctx, cust.ID)
	if err != nil {
		return "", fmt.Errorf("list addresses: %w", err)
	}
	if len(existing) == 0 {
		for _, a := range addresses {
			a.CustomerID = cust.ID
			if _, err := book.Create(ctx, a); err != nil {
				return "", fmt.Errorf("create address: %w", err)
			}
		}
	}

	token, err := session.New(tokenrepo.NewPostgres(pool), customers, logger).Issue(ctx, cust.ID, tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
