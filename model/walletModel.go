package model

import "github.com/shopspring/decimal"

// MaxWalletReservations caps concurrent active reservations per user.
const MaxWalletReservations = 3

// ReservationRef is a wallet slot entry. Reservation is nil unless the wallet
// was fetched with hydration, so callers can tell a bare reference from a
// populated one without a shared ambiguous type.
type ReservationRef struct {
	ID          string       `json:"id"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

type Wallet struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Balance      decimal.Decimal  `json:"balance"`
	Reservations []ReservationRef `json:"reservations"`
	Version      int64            `json:"version"`
}

// HasReservation reports whether the wallet holds a slot for the given reservation.
func (w *Wallet) HasReservation(reservationID string) bool {
	for _, ref := range w.Reservations {
		if ref.ID == reservationID {
			return true
		}
	}
	return false
}
