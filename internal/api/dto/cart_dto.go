package dto

import (
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/shopspring/decimal"
)

type CartItemDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartDTO struct {
	Items         []CartItemDTO   `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

func NewCartDTO(s model.CartState) CartDTO {
	items := make([]CartItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, CartItemDTO{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal(),
		})
	}
	return CartDTO{
		Items:         items,
		TotalQuantity: s.TotalQuantity,
		TotalPrice:    s.TotalPrice,
	}
}

// AddItemDTO adds either a catalog product (ProductCode) or an explicit item.
// Quantity 0 means 1.
type AddItemDTO struct {
	ProductCode string           `json:"product_code,omitempty"`
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    int              `json:"quantity"`
}

type UpdateQuantityDTO struct {
	Quantity *int `json:"quantity"`
}
