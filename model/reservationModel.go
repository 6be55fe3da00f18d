package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "pending"
	ReservationReserved ReservationStatus = "reserved"
	ReservationLate     ReservationStatus = "late"
	ReservationBought   ReservationStatus = "bought"
	ReservationReturned ReservationStatus = "returned"
	ReservationCanceled ReservationStatus = "canceled"
)

type Reservation struct {
	ID                 string            `json:"id"`
	BookID             string            `json:"book_id"`
	UserID             string            `json:"user_id"`
	Price              decimal.Decimal   `json:"price"`
	ReservationDate    time.Time         `json:"reservation_date"`
	ExpectedReturnDate time.Time         `json:"expected_return_date"`
	ReturnDate         *time.Time        `json:"return_date,omitempty"`
	LateFees           decimal.Decimal   `json:"late_fees"`
	Status             ReservationStatus `json:"status"`
	Version            int64             `json:"version"`
}

// Active reports whether the reservation still holds a copy (returnDate unset).
func (r *Reservation) Active() bool { return r.ReturnDate == nil }
