package reservation

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fercon997/accountable-challenge/app/echoServer/httperr"
	"github.com/fercon997/accountable-challenge/app/echoServer/jwtx"
	"github.com/fercon997/accountable-challenge/model"
	reservationrepo "github.com/fercon997/accountable-challenge/repository/reservation"
	rs "github.com/fercon997/accountable-challenge/service/reservation"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/reservations
func (h *Controller) Create(c echo.Context) error {
	var req CreateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid := jwtx.UserID(c)

	res, err := h.Svc.CreateReservation(c.Request().Context(), uid, req.BookID, req.ExpectedReturnDate)
	if err != nil {
		h.Log.Error("reservation create", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// POST /v1/reservations/:id/pay
func (h *Controller) Pay(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid := jwtx.UserID(c)

	res, err := h.Svc.PayReservation(c.Request().Context(), id, uid)
	if err != nil {
		h.Log.Error("reservation pay", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// POST /v1/reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid := jwtx.UserID(c)

	res, err := h.Svc.CancelReservation(c.Request().Context(), id, uid)
	if err != nil {
		h.Log.Error("reservation cancel", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// POST /v1/reservations/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid := jwtx.UserID(c)

	res, err := h.Svc.EndReservation(c.Request().Context(), id, uid)
	if err != nil {
		h.Log.Error("reservation return", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GET /v1/reservations
func (h *Controller) List(c echo.Context) error {
	var req ListReservationsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid query"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	uid := jwtx.UserID(c)
	filter := reservationrepo.Filter{UserID: &uid}
	if req.Status != "" {
		status := model.ReservationStatus(req.Status)
		filter.Status = &status
	}

	page, err := h.Svc.GetPaginated(c.Request().Context(), filter, req.Page, req.PageSize)
	if err != nil {
		h.Log.Error("reservation list", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/reservations/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	res, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("reservation detail", "err", err)
		return httperr.JSON(c, err)
	}
	if res.UserID != jwtx.UserID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, res)
}

func reservationID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", err
	}
	return id, nil
}
