package config

import (
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
)

func Load() App {
	cfg := App{
		Port:             getenv("APP_PORT", "8080"),
		DatabaseURL:      must("DATABASE_URL"),
		JWTSecret:        getenv("JWT_SECRET", "local_dev_secret"),
		Env:              getenv("APP_ENV", "dev"),
		ReservationPrice: getdecimal("RESERVATION_PRICE", "3"),
		LateFeeIncrement: getdecimal("LATE_FEE_INCREMENT", "0.2"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdecimal(k, def string) decimal.Decimal {
	raw := getenv(k, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Error("invalid decimal env, using default", "key", k, "value", raw)
		d, _ = decimal.NewFromString(def)
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
