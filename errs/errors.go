// Package errs carries the domain error taxonomy shared by the reservation,
// inventory and wallet services. Controllers switch on CodeOf to pick a status.
package errs

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound                 Code = "NOT_FOUND"
	CodeInvalidQuantity          Code = "INVALID_QUANTITY"
	CodeInvalidBalance           Code = "INVALID_BALANCE"
	CodeVersionChanged           Code = "VERSION_CHANGED"
	CodeInvalidReservationStatus Code = "INVALID_RESERVATION_STATUS"
	CodeAlreadyReserved          Code = "ALREADY_RESERVED"
	CodeInvalidReturnDate        Code = "INVALID_RETURN_DATE"
	CodeMaxReservationsReached   Code = "MAX_RESERVATIONS_REACHED"
	CodeReservationNotFound      Code = "RESERVATION_NOT_FOUND"
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodePersistence              Code = "PERSISTENCE"
)

type codedError struct {
	code  Code
	msg   string
	cause error
}

func (e codedError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e codedError) Code() Code    { return e.code }
func (e codedError) Unwrap() error { return e.cause }

func New(code Code, format string, args ...any) error {
	return codedError{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying cause reachable through errors.Unwrap.
func Wrap(code Code, cause error, format string, args ...any) error {
	return codedError{code: code, msg: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the domain code, or "" for errors outside the taxonomy.
func CodeOf(err error) Code {
	var ce interface{ Code() Code }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool { return CodeOf(err) == code }
