package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Listing struct {
	ID            int64
	Title         string
	Description   string
	Location      string
	PricePerNight decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
