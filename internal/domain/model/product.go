package model

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The catalog only produces AddItemRequests;
// the cart never reads it back.
type Product struct {
	ProductID   uint            `gorm:"primaryKey" json:"-"`
	Code        string          `gorm:"not null;type:varchar(100);unique" json:"code"`
	Name        string          `gorm:"not null;type:varchar(100)" json:"name"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Category    string          `gorm:"not null;type:varchar(50);default:''" json:"category"`
	Description string          `gorm:"not null;type:text;default:''" json:"description"`
	BaseModel
}

// ToAddItemRequest turns the product into a cart add of quantity units.
func (p Product) ToAddItemRequest(quantity int) AddItemRequest {
	return AddItemRequest{
		ID:       p.Code,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: quantity,
	}
}
