package setting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the single store-wide configuration row.
type Settings struct {
	StoreName             string          `json:"storeName"`
	ContactEmail          string          `json:"contactEmail"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
	ShippingFee           decimal.Decimal `json:"shippingFee"`
	Currency              string          `json:"currency"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// ShippingFor returns the shipping cost for a goods subtotal: free at or
// above the threshold, the flat fee below it.
func (s Settings) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.FreeShippingThreshold) {
		return decimal.Zero
	}
	return s.ShippingFee
}
