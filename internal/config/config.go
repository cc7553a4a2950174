package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	ChapaSecretKey     string `env:"CHAPA_SECRET_KEY,required"`
	ChapaBaseURL       string `env:"CHAPA_BASE_URL" envDefault:"https://api.chapa.co/v1"`
	PaymentCallbackURL string `env:"PAYMENT_CALLBACK_URL" envDefault:"http://app:8080/payment/callback/"`
	PaymentCurrency    string `env:"PAYMENT_CURRENCY" envDefault:"ETB"`

	SMTPAddr string `env:"SMTP_ADDR"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"no-reply@alxtravel.app"`

	NotifierIntervalS  int `env:"NOTIFIER_INTERVAL_S" envDefault:"5"`
	ReaperIntervalS    int `env:"REAPER_INTERVAL_S" envDefault:"60"`
	BookingReapAfterS  int `env:"BOOKING_REAP_AFTER_S" envDefault:"900"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
