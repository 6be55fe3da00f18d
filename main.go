// Package main library reservation API.
//
// @title           Library Reservation API
// @version         1.0
// @description     Book reservations, inventory tracking and user wallets.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/fercon997/accountable-challenge/app/echoServer"
	bookctrl "github.com/fercon997/accountable-challenge/app/echoServer/controller/book"
	reservationctrl "github.com/fercon997/accountable-challenge/app/echoServer/controller/reservation"
	walletctrl "github.com/fercon997/accountable-challenge/app/echoServer/controller/wallet"
	"github.com/fercon997/accountable-challenge/app/echoServer/validation"
	"github.com/fercon997/accountable-challenge/app/schedule"
	"github.com/fercon997/accountable-challenge/config"
	bookrepo "github.com/fercon997/accountable-challenge/repository/book"
	invrepo "github.com/fercon997/accountable-challenge/repository/inventory"
	reservationrepo "github.com/fercon997/accountable-challenge/repository/reservation"
	userrepo "github.com/fercon997/accountable-challenge/repository/user"
	walletrepo "github.com/fercon997/accountable-challenge/repository/wallet"
	batchsvc "github.com/fercon997/accountable-challenge/service/batch"
	booksvc "github.com/fercon997/accountable-challenge/service/book"
	invsvc "github.com/fercon997/accountable-challenge/service/inventory"
	"github.com/fercon997/accountable-challenge/service/notification"
	reservationsvc "github.com/fercon997/accountable-challenge/service/reservation"
	walletsvc "github.com/fercon997/accountable-challenge/service/wallet"
	"github.com/fercon997/accountable-challenge/util/database"
)

func main() {

	cfg := config.Load()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	br := bookrepo.New()
	ir := invrepo.New()
	rr := reservationrepo.New()
	wr := walletrepo.New()
	ur := userrepo.New()

	// services
	is := invsvc.New(db.Pool, ir, br, log)
	ws := walletsvc.New(db.Pool, wr, log)
	rs := reservationsvc.New(db.Pool, db, rr, is, ws, cfg.ReservationPrice, log)
	bs := booksvc.New(db.Pool, br, is, log)
	es := notification.NewEmailService(log)
	bats := batchsvc.New(db.Pool, db, rr, is, br, ur, es, cfg.LateFeeIncrement, log)

	// daily sweeps
	schedule.New(bats, log).Start(ctx)

	// controllers
	v := validator.New()
	bookC := &bookctrl.Controller{Svc: bs, InvSvc: is, V: v, Log: log}
	reservationC := &reservationctrl.Controller{Svc: rs, V: v, Log: log}
	walletC := &walletctrl.Controller{Svc: ws, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Book:        bookC,
		Reservation: reservationC,
		Wallet:      walletC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
