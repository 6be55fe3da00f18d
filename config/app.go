package config

import "github.com/shopspring/decimal"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// Business parameters, overridable per environment.
	ReservationPrice decimal.Decimal `env:"RESERVATION_PRICE" default:"3"`
	LateFeeIncrement decimal.Decimal `env:"LATE_FEE_INCREMENT" default:"0.2"`
}
