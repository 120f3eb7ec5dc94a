package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestShippingCost(t *testing.T) {
	for _, tc := range []struct {
		subtotal int64
		want     int64
	}{{2500, 0}, {9000, 0}, {2499, 200}, {0, 200}} {
		assert.True(t, ShippingCost(dec(tc.subtotal)).Equal(dec(tc.want)), "subtotal %d", tc.subtotal)
	}
	assert.True(t, ShippingCost(decimal.RequireFromString("2499.99")).Equal(dec(200)))
}

func TestCouponDiscount(t *testing.T) {
	pct := Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: dec(10)}
	assert.True(t, pct.Discount(dec(1000)).Equal(dec(100)))

	fixed := Coupon{Code: "FLAT150", DiscountType: "fixed", DiscountValue: dec(150)}
	assert.True(t, fixed.Discount(dec(50)).Equal(dec(150)))
	assert.True(t, fixed.Discount(dec(5000)).Equal(dec(150)))
}

func TestTotals(t *testing.T) {
	policy := DefaultShippingPolicy()

	s := Totals(dec(3000), nil, policy)
	assert.True(t, s.Discount.IsZero())
	assert.True(t, s.Shipping.IsZero())
	assert.True(t, s.Total.Equal(dec(3000)))

	s = Totals(dec(3000), &Coupon{DiscountType: "percentage", DiscountValue: dec(10)}, policy)
	assert.True(t, s.Discount.Equal(dec(300)))
	assert.True(t, s.Total.Equal(dec(2700)))

	// shipping is decided before the discount
	s = Totals(dec(2600), &Coupon{DiscountType: "fixed", DiscountValue: dec(500)}, policy)
	assert.True(t, s.Shipping.IsZero())
	assert.True(t, s.Total.Equal(dec(2100)))

	s = Totals(dec(50), &Coupon{DiscountType: "fixed", DiscountValue: dec(150)}, policy)
	assert.True(t, s.Discount.Equal(dec(150)), "the client does not clamp")
	assert.True(t, s.Total.Equal(dec(100)))
}
