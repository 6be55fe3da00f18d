package wallet

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/fercon997/accountable-challenge/app/echoServer/httperr"
	"github.com/fercon997/accountable-challenge/app/echoServer/jwtx"
	ws "github.com/fercon997/accountable-challenge/service/wallet"
)

type Controller struct {
	Svc ws.Service
	V   *validator.Validate
	Log *slog.Logger
}

// TopupReq represents a wallet credit payload
// swagger:model TopupReq
type TopupReq struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// GET /v1/wallet
func (h *Controller) Get(c echo.Context) error {
	uid := jwtx.UserID(c)
	withReservations := c.QueryParam("reservations") == "true"

	w, err := h.Svc.Get(c.Request().Context(), uid, withReservations)
	if err != nil {
		h.Log.Error("wallet get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, w)
}

// POST /v1/wallet/topup
func (h *Controller) Topup(c echo.Context) error {
	var req TopupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil || !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "amount must be positive"})
	}

	uid := jwtx.UserID(c)
	w, err := h.Svc.IncrementBalance(c.Request().Context(), uid, req.Amount)
	if err != nil {
		h.Log.Error("wallet topup", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, w)
}
