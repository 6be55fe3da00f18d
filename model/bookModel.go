package model

import "github.com/shopspring/decimal"

type Book struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}
