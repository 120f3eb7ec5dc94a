package checkout

import "github.com/shopspring/decimal"

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(2500)
	DefaultShippingFee           = decimal.NewFromInt(200)
)

// ShippingPolicy is the store's flat-fee rule with a free-shipping threshold.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}

func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{FreeThreshold: DefaultFreeShippingThreshold, Fee: DefaultShippingFee}
}

func (p ShippingPolicy) Cost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.Fee
}

// ShippingCost applies the default policy.
func ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	return DefaultShippingPolicy().Cost(subtotal)
}

type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Totals is what the checkout page shows. Shipping is decided on the
// pre-discount subtotal. The discount is not clamped here; the server
// charges max(subtotal-discount, 0) + shipping.
func Totals(subtotal decimal.Decimal, c *Coupon, policy ShippingPolicy) Summary {
	s := Summary{Subtotal: subtotal, Discount: decimal.Zero, Shipping: policy.Cost(subtotal)}
	if c != nil {
		s.Discount = c.Discount(subtotal)
	}
	s.Total = subtotal.Sub(s.Discount).Add(s.Shipping)
	return s
}
