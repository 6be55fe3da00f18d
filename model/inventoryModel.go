package model

type BookInventory struct {
	BookID         string `json:"book_id"`
	TotalInventory int64  `json:"total_inventory"`
	TotalReserved  int64  `json:"total_reserved"`
	Version        int64  `json:"version"`
}

// FullyReserved reports whether every copy is held by an active reservation.
func (b *BookInventory) FullyReserved() bool { return b.TotalReserved == b.TotalInventory }
