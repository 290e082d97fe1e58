package model

import (
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"github.com/shopspring/decimal"
)

const (
	AddItemCommandName        CommandType = "AddItem"
	RemoveItemCommandName     CommandType = "RemoveItem"
	UpdateQuantityCommandName CommandType = "UpdateQuantity"
	ClearCartCommandName      CommandType = "ClearCart"
)

type AddItemCommand struct {
	BaseCommand
	Item model.AddItemRequest `json:"item"`
}

func NewAddItemCommand(item model.AddItemRequest) *AddItemCommand {
	return &AddItemCommand{
		BaseCommand: NewBaseCommand(),
		Item:        item,
	}
}

func (c *AddItemCommand) Type() CommandType {
	return AddItemCommandName
}

type RemoveItemCommand struct {
	BaseCommand
	ItemID string `json:"item_id"`
}

func NewRemoveItemCommand(itemID string) *RemoveItemCommand {
	return &RemoveItemCommand{
		BaseCommand: NewBaseCommand(),
		ItemID:      itemID,
	}
}

func (c *RemoveItemCommand) Type() CommandType {
	return RemoveItemCommandName
}

type UpdateQuantityCommand struct {
	BaseCommand
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func NewUpdateQuantityCommand(itemID string, quantity int) *UpdateQuantityCommand {
	return &UpdateQuantityCommand{
		BaseCommand: NewBaseCommand(),
		ItemID:      itemID,
		Quantity:    quantity,
	}
}

func (c *UpdateQuantityCommand) Type() CommandType {
	return UpdateQuantityCommandName
}

// 清空整個購物車
type ClearCartCommand struct {
	BaseCommand
}

func NewClearCartCommand() *ClearCartCommand {
	return &ClearCartCommand{
		BaseCommand: NewBaseCommand(),
	}
}

func (c *ClearCartCommand) Type() CommandType {
	return ClearCartCommandName
}

// NewAddItem is a shorthand for callers that do not build a request first.
func NewAddItem(id, name string, price decimal.Decimal, quantity int) *AddItemCommand {
	return NewAddItemCommand(model.AddItemRequest{
		ID:       id,
		Name:     name,
		Price:    price,
		Quantity: quantity,
	})
}
