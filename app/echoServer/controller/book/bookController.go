package book

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fercon997/accountable-challenge/app/echoServer/httperr"
	bs "github.com/fercon997/accountable-challenge/service/book"
	is "github.com/fercon997/accountable-challenge/service/inventory"
)

type Controller struct {
	Svc    bs.Service
	InvSvc is.Service
	V      *validator.Validate
	Log    *slog.Logger
}

// POST /v1/books
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	b, err := h.Svc.Create(c.Request().Context(), req.Title, req.Author, req.Price, req.Quantity)
	if err != nil {
		h.Log.Error("book create", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	b, err := h.Svc.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.Log.Error("book detail", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// GET /v1/books/:id/inventory
func (h *Controller) Inventory(c echo.Context) error {
	inv, err := h.InvSvc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.Log.Error("inventory get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// PUT /v1/books/:id/inventory
func (h *Controller) UpdateInventory(c echo.Context) error {
	var req UpdateInventoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	inv, err := h.InvSvc.Update(c.Request().Context(), c.Param("id"), req.Quantity)
	if err != nil {
		h.Log.Error("inventory update", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// DELETE /v1/books/:id
func (h *Controller) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		h.Log.Error("book delete", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
