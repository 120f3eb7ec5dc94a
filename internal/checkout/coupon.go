package checkout

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Coupon is the server's view of an applied code.
type Coupon struct {
	ID                  int             `json:"id"`
	Code                string          `json:"code"`
	DiscountType        string          `json:"discountType"`
	DiscountValue       decimal.Decimal `json:"discountValue"`
	IsInfluencerCode    bool            `json:"isInfluencerCode"`
	InfluencerInstagram *string         `json:"influencerInstagram,omitempty"`
}

// Discount is subtotal*value/100 for percentage coupons and the face value
// for fixed ones.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c.DiscountType == "percentage" {
		return subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	}
	return c.DiscountValue
}

// CouponResult mirrors POST /api/coupons/validate.
type CouponResult struct {
	Valid    bool             `json:"valid"`
	Coupon   *Coupon          `json:"coupon,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Error    string           `json:"error,omitempty"`
}
