package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/fercon997/accountable-challenge/app/echoServer/controller/book"
	"github.com/fercon997/accountable-challenge/app/echoServer/controller/reservation"
	"github.com/fercon997/accountable-challenge/app/echoServer/controller/wallet"
	"github.com/fercon997/accountable-challenge/app/echoServer/jwtx"
)

type C struct {
	Book        *book.Controller
	Reservation *reservation.Controller
	Wallet      *wallet.Controller
	JWTSecret   string
}

func Register(e *echo.Echo, c C) {
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id extraction from the verified token
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sub, err := jwtx.SubjectFromToken(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			jwtx.SetUserID(ctx, sub)
			return next(ctx)
		}
	})

	// Books (admin)
	auth.POST("/books", c.Book.Create)
	auth.GET("/books/:id", c.Book.Detail)
	auth.GET("/books/:id/inventory", c.Book.Inventory)
	auth.PUT("/books/:id/inventory", c.Book.UpdateInventory)
	auth.DELETE("/books/:id", c.Book.Delete)

	// Wallet
	auth.GET("/wallet", c.Wallet.Get)
	auth.POST("/wallet/topup", c.Wallet.Topup)

	// Reservations
	auth.POST("/reservations", c.Reservation.Create)
	auth.GET("/reservations", c.Reservation.List)
	auth.GET("/reservations/:id", c.Reservation.Detail)
	auth.POST("/reservations/:id/pay", c.Reservation.Pay)
	auth.POST("/reservations/:id/cancel", c.Reservation.Cancel)
	auth.POST("/reservations/:id/return", c.Reservation.Return)
}
