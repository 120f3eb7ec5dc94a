package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

var (
	ErrInvalidCoupon = errors.New("invalid coupon code")
	ErrInactive      = fmt.Errorf("%w: coupon is not active", ErrInvalidCoupon)
	ErrNotYetValid   = fmt.Errorf("%w: coupon is not valid yet", ErrInvalidCoupon)
	ErrExpired       = fmt.Errorf("%w: coupon has expired", ErrInvalidCoupon)
	ErrUsageLimit    = fmt.Errorf("%w: coupon usage limit reached", ErrInvalidCoupon)
	ErrMinOrderTotal = fmt.Errorf("%w: order total is below the coupon minimum", ErrInvalidCoupon)
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID                  int             `json:"id"`
	Code                string          `json:"code"`
	DiscountType        DiscountType    `json:"discountType"`
	DiscountValue       decimal.Decimal `json:"discountValue"`
	IsInfluencerCode    bool            `json:"isInfluencerCode"`
	InfluencerInstagram *string         `json:"influencerInstagram,omitempty"`
	MinOrderTotal       decimal.Decimal `json:"minOrderTotal"`
	MaxUses             int             `json:"maxUses"`
	UsedCount           int             `json:"usedCount"`
	ValidFrom           *time.Time      `json:"validFrom,omitempty"`
	ValidUntil          *time.Time      `json:"validUntil,omitempty"`
	Active              bool            `json:"active"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// NormalizeCode makes codes case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount returns the raw discount for subtotal: subtotal*value/100 for
// percentage coupons, the face value for fixed ones. It does not clamp.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c.DiscountType == Percentage {
		return subtotal.Mul(c.DiscountValue).Div(hundred).Round(2)
	}
	return c.DiscountValue
}

// Check reports why the coupon cannot be applied to orderTotal at now.
func (c Coupon) Check(now time.Time, orderTotal decimal.Decimal) error {
	switch {
	case !c.Active:
		return ErrInactive
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return ErrNotYetValid
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return ErrExpired
	case c.MaxUses > 0 && c.UsedCount >= c.MaxUses:
		return ErrUsageLimit
	case orderTotal.LessThan(c.MinOrderTotal):
		return ErrMinOrderTotal
	}
	return nil
}

func (c Coupon) validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", ErrBadCoupon)
	}
	switch c.DiscountType {
	case Percentage:
		if !c.DiscountValue.IsPositive() || c.DiscountValue.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage must be between 0 and 100", ErrBadCoupon)
		}
	case Fixed:
		if !c.DiscountValue.IsPositive() {
			return fmt.Errorf("%w: fixed discount must be positive", ErrBadCoupon)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrBadCoupon, c.DiscountType)
	}
	if c.MaxUses < 0 || c.MinOrderTotal.IsNegative() {
		return fmt.Errorf("%w: limits must be non-negative", ErrBadCoupon)
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && c.ValidUntil.Before(*c.ValidFrom) {
		return fmt.Errorf("%w: validUntil is before validFrom", ErrBadCoupon)
	}
	if c.IsInfluencerCode && (c.InfluencerInstagram == nil || *c.InfluencerInstagram == "") {
		return fmt.Errorf("%w: influencer codes need an instagram handle", ErrBadCoupon)
	}
	return nil
}

// Redemption records one use of a coupon by a completed order.
type Redemption struct {
	CouponID    int             `json:"couponId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      int             `json:"userId"`
	OrderTotal  decimal.Decimal `json:"orderTotal"`
	Discount    decimal.Decimal `json:"discount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// InfluencerStats aggregates redemptions of one influencer code.
type InfluencerStats struct {
	CouponID      int             `json:"couponId"`
	Code          string          `json:"code"`
	Instagram     string          `json:"instagram"`
	Uses          int             `json:"uses"`
	Revenue       decimal.Decimal `json:"revenue"`
	DiscountGiven decimal.Decimal `json:"discountGiven"`
}
