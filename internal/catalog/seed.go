package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// LoadSeed reads products from a YAML seed file.
func LoadSeed(path string) ([]model.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

func ParseSeed(r io.Reader) ([]model.Product, error) {
	var sf seedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	seen := make(map[string]struct{}, len(sf.Products))
	products := make([]model.Product, 0, len(sf.Products))
	for i, p := range sf.Products {
		if p.Code == "" {
			return nil, fmt.Errorf("catalog seed entry %d has no code", i)
		}
		if _, ok := seen[p.Code]; ok {
			return nil, fmt.Errorf("catalog seed has duplicate code %s", p.Code)
		}
		seen[p.Code] = struct{}{}

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog seed %s: invalid price %q: %w", p.Code, p.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog seed %s: negative price", p.Code)
		}
		products = append(products, model.Product{
			Code:        p.Code,
			Name:        p.Name,
			Price:       price,
			Category:    p.Category,
			Description: p.Description,
		})
	}
	return products, nil
}

// Seeder is implemented by *db.ProductRepo.
type Seeder interface {
	SeedProducts(ctx context.Context, products []model.Product) (int64, error)
}

// SeedFromFile inserts the products of a seed file that the seeder does not
// have yet and returns how many were inserted.
func SeedFromFile(ctx context.Context, seeder Seeder, path string) (int64, error) {
	products, err := LoadSeed(path)
	if err != nil {
		return 0, err
	}
	n, err := seeder.SeedProducts(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	return n, nil
}
