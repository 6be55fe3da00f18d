// Package httperr maps domain error codes onto HTTP responses so controllers
// share one table instead of repeating switches.
package httperr

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fercon997/accountable-challenge/errs"
)

func statusOf(code errs.Code) int {
	switch code {
	case errs.CodeNotFound, errs.CodeReservationNotFound:
		return http.StatusNotFound
	case errs.CodeUnauthorized:
		return http.StatusForbidden
	case errs.CodeInvalidBalance, errs.CodeInvalidReturnDate:
		return http.StatusBadRequest
	case errs.CodeInvalidQuantity,
		errs.CodeVersionChanged,
		errs.CodeAlreadyReserved,
		errs.CodeInvalidReservationStatus,
		errs.CodeMaxReservationsReached:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes the error as a JSON body. Errors outside the domain taxonomy
// are reported as a plain internal error without leaking the cause.
func JSON(c echo.Context, err error) error {
	code := errs.CodeOf(err)
	status := statusOf(code)
	if status == http.StatusInternalServerError {
		return c.JSON(status, echo.Map{"message": "internal error"})
	}
	return c.JSON(status, echo.Map{"message": err.Error(), "code": code})
}
