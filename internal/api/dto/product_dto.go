package dto

import (
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/shopspring/decimal"
)

type ProductDTO struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

func NewProductDTO(p model.Product) ProductDTO {
	return ProductDTO{
		Code:        p.Code,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
	}
}

func NewProductDTOs(products []model.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}
