package book

import "github.com/shopspring/decimal"

// CreateBookReq represents a catalog entry with its initial inventory
// swagger:model CreateBookReq
type CreateBookReq struct {
	Title    string          `json:"title" validate:"required"`
	Author   string          `json:"author" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	Quantity int64           `json:"quantity" validate:"required,gt=0"`
}

// UpdateInventoryReq represents an inventory quantity change
// swagger:model UpdateInventoryReq
type UpdateInventoryReq struct {
	Quantity int64 `json:"quantity" validate:"required,gte=0"`
}
