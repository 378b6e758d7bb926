package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Place is a heritage site. Places are never seat-limited.
type Place struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// SumPrices adds up the prices of the given places.
func SumPrices(places []Place) decimal.Decimal {
	total := decimal.Zero
	for _, p := range places {
		total = total.Add(p.Price)
	}
	return total
}
