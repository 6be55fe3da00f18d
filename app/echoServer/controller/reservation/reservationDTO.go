package reservation

import "time"

// CreateReservationReq represents a reservation request payload
// swagger:model CreateReservationReq
type CreateReservationReq struct {
	BookID             string    `json:"book_id" validate:"required,uuid4"`
	ExpectedReturnDate time.Time `json:"expected_return_date" validate:"required"`
}

// ListReservationsReq holds the pagination query parameters
// swagger:model ListReservationsReq
type ListReservationsReq struct {
	Page     int    `query:"page" validate:"omitempty,gt=0"`
	PageSize int    `query:"page_size" validate:"omitempty,gt=0,lte=100"`
	Status   string `query:"status" validate:"omitempty,oneof=pending reserved late bought returned canceled"`
}
