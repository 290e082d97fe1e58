package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/RoyceAzure/lab/cartstore/internal/infra/repository/db"
)

var ErrProductNotFound = db.ErrProductNotFound

// ProductSource is satisfied by *db.ProductRepo and *MemorySource.
type ProductSource interface {
	GetProductByCode(ctx context.Context, code string) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
}

// Catalog turns product codes into cart add requests.
type Catalog struct {
	source ProductSource
}

func New(source ProductSource) *Catalog {
	if source == nil {
		panic("Catalog dependency source is nil")
	}
	return &Catalog{source: source}
}

func (c *Catalog) List(ctx context.Context) ([]model.Product, error) {
	return c.source.GetAllProducts(ctx)
}

func (c *Catalog) Lookup(ctx context.Context, code string) (*model.Product, error) {
	return c.source.GetProductByCode(ctx, code)
}

// AddRequest resolves code and builds an add of quantity units.
func (c *Catalog) AddRequest(ctx context.Context, code string, quantity int) (model.AddItemRequest, error) {
	p, err := c.source.GetProductByCode(ctx, code)
	if err != nil {
		return model.AddItemRequest{}, err
	}
	return p.ToAddItemRequest(quantity), nil
}

// MemorySource serves a fixed product list, used when no database is configured.
type MemorySource struct {
	byCode   map[string]model.Product
	products []model.Product
}

func NewMemorySource(products []model.Product) *MemorySource {
	m := &MemorySource{
		byCode:   make(map[string]model.Product, len(products)),
		products: make([]model.Product, 0, len(products)),
	}
	for _, p := range products {
		if _, ok := m.byCode[p.Code]; ok {
			continue
		}
		m.byCode[p.Code] = p
		m.products = append(m.products, p)
	}
	sort.Slice(m.products, func(i, j int) bool { return m.products[i].Code < m.products[j].Code })
	return m
}

func (m *MemorySource) GetProductByCode(_ context.Context, code string) (*model.Product, error) {
	p, ok := m.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, code)
	}
	return &p, nil
}

func (m *MemorySource) GetAllProducts(context.Context) ([]model.Product, error) {
	out := make([]model.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}
