package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

const attrPrefix = "attr."

type VariantWriter interface {
	Upsert(ctx context.Context, v domain.Variant) (*domain.Variant, error)
}

// CSVImporter reads catalog variant exports and inserts/updates variants with
// their prices and stock.
//
// Columns: product_id, product_key, name, brand, variant_id, sku, image,
// price_list, price_sale, stock, and any number of attr.<name> columns.
// A row with an empty product_id continues the previous product: it inherits
// product_id, product_key, name and brand.
type CSVImporter struct {
	reader *csv.Reader
	repo   VariantWriter
}

func NewCSVImporter(r io.Reader, repo VariantWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, repo: repo}
}

// Run parses CSV rows and upserts one variant per row. It stops at the first
// invalid row and reports how many variants were written before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"variant_id", "sku", "price_list", "stock"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		parent   *domain.Variant
		imported int
	)
	line := 1

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		v, err := parseRow(record, index, headers)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if v == nil {
			continue
		}

		if v.ProductID == "" {
			if parent == nil {
				return imported, fmt.Errorf("line %d: continuation row without a product", line)
			}
			v.ProductID = parent.ProductID
			v.ProductKey = parent.ProductKey
			if v.Name == "" {
				v.Name = parent.Name
			}
			if v.Brand == "" {
				v.Brand = parent.Brand
			}
		} else {
			parent = v
		}

		if err := i.save(ctx, *v); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, v domain.Variant) error {
	if v.Name == "" {
		return fmt.Errorf("variant %q has no name", v.VariantID)
	}
	if _, err := i.repo.Upsert(ctx, v); err != nil {
		return fmt.Errorf("upsert variant %s/%s: %w", v.ProductID, v.VariantID, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, headers []string) (*domain.Variant, error) {
	variantID := pick(record, index, "variant_id")
	if variantID == "" {
		// Blank separator rows are skipped.
		return nil, nil
	}

	v := &domain.Variant{
		ProductID:  pick(record, index, "product_id"),
		ProductKey: pick(record, index, "product_key"),
		VariantID:  variantID,
		SKU:        pick(record, index, "sku"),
		Name:       pick(record, index, "name"),
		Brand:      pick(record, index, "brand"),
		Image:      pick(record, index, "image"),
	}
	if v.SKU == "" {
		return nil, fmt.Errorf("variant %q has no sku", variantID)
	}

	list, err := parseMoney(pick(record, index, "price_list"))
	if err != nil || list <= 0 {
		return nil, fmt.Errorf("variant %q: invalid price_list", variantID)
	}
	v.PriceList = list

	if raw := pick(record, index, "price_sale"); raw != "" {
		sale, err := parseMoney(raw)
		if err != nil || sale <= 0 || sale > list {
			return nil, fmt.Errorf("variant %q: invalid price_sale", variantID)
		}
		v.PriceSale = &sale
	}

	stock, err := strconv.Atoi(pick(record, index, "stock"))
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("variant %q: invalid stock", variantID)
	}
	v.Stock = stock

	for pos, h := range headers {
		name, ok := strings.CutPrefix(strings.TrimSpace(h), attrPrefix)
		if !ok || name == "" || pos >= len(record) {
			continue
		}
		if val := strings.TrimSpace(record[pos]); val != "" {
			if v.Attributes == nil {
				v.Attributes = map[string]string{}
			}
			v.Attributes[name] = val
		}
	}
	return v, nil
}

// parseMoney accepts whole currency units, tolerating thousands separators
// such as "1,250,000" or "1.250.000".
func parseMoney(s string) (int64, error) {
	s = strings.NewReplacer(",", "", ".", "", " ", "").Replace(s)
	return strconv.ParseInt(s, 10, 64)
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
