package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type stubVariantRepo struct {
	items []domain.Variant
	err   error
}

func (s *stubVariantRepo) Upsert(_ context.Context, v domain.Variant) (*domain.Variant, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, v)
	return &v, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `product_id,product_key,name,brand,variant_id,sku,image,price_list,price_sale,stock,attr.color,attr.size
p-tee,cotton-tee,Cotton Tee,Local Brand,v-red-m,TEE-RED-M,https://cdn.example.com/tee-red.jpg,"250,000",199000,12,red,M
,,,,v-red-l,TEE-RED-L,,250000,,0,red,L

p-mug,ceramic-mug,Ceramic Mug,,v-white,MUG-WHITE,,90000,,5,white,`

	repo := &stubVariantRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 || len(repo.items) != 3 {
		t.Fatalf("expected 3 variants imported, got %d (%d saved)", count, len(repo.items))
	}

	first := repo.items[0]
	if first.PriceList != 250000 || first.PriceSale == nil || *first.PriceSale != 199000 || first.Stock != 12 {
		t.Fatalf("unexpected prices/stock: %+v", first)
	}
	if first.Attributes["color"] != "red" || first.Attributes["size"] != "M" {
		t.Fatalf("unexpected attributes: %+v", first.Attributes)
	}

	cont := repo.items[1]
	if cont.ProductID != "p-tee" || cont.Name != "Cotton Tee" || cont.Brand != "Local Brand" || cont.ProductKey != "cotton-tee" {
		t.Fatalf("continuation row did not inherit product fields: %+v", cont)
	}
	if cont.PriceSale != nil || cont.Stock != 0 {
		t.Fatalf("unexpected continuation prices/stock: %+v", cont)
	}

	mug := repo.items[2]
	if _, ok := mug.Attributes["size"]; ok {
		t.Fatalf("empty attribute should be skipped: %+v", mug.Attributes)
	}
}

func TestCSVImporter_RejectsSaleAboveList(t *testing.T) {
	csvData := `product_id,name,variant_id,sku,price_list,price_sale,stock
p1,Shirt,v1,SKU-1,100000,120000,3`

	repo := &stubVariantRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "price_sale") {
		t.Fatalf("expected price_sale error, got %v", err)
	}
	if count != 0 || len(repo.items) != 0 {
		t.Fatalf("nothing should be written, got %d", count)
	}
}

func TestCSVImporter_RejectsNegativeStock(t *testing.T) {
	csvData := `product_id,name,variant_id,sku,price_list,stock
p1,Shirt,v1,SKU-1,100000,4
p1,Shirt,v2,SKU-2,100000,-1`

	repo := &stubVariantRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected error on line 3, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected first row written, got %d", count)
	}
}

func TestCSVImporter_MissingColumn(t *testing.T) {
	csvData := `product_id,name,variant_id,sku,stock
p1,Shirt,v1,SKU-1,4`

	if _, err := NewCSVImporter(strings.NewReader(csvData), &stubVariantRepo{}).Run(context.Background()); err == nil {
		t.Fatalf("expected missing column error")
	}
}

func TestCSVImporter_ContinuationWithoutProduct(t *testing.T) {
	csvData := `product_id,name,variant_id,sku,price_list,stock
,Shirt,v1,SKU-1,100000,4`

	if _, err := NewCSVImporter(strings.NewReader(csvData), &stubVariantRepo{}).Run(context.Background()); err == nil {
		t.Fatalf("expected continuation error")
	}
}

func TestCSVImporter_RepoErrorStops(t *testing.T) {
	csvData := `product_id,name,variant_id,sku,price_list,stock
p1,Shirt,v1,SKU-1,100000,4`

	boom := errors.New("db down")
	_, err := NewCSVImporter(strings.NewReader(csvData), &stubVariantRepo{err: boom}).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}
