package payment

import (
	"regexp"
	"strings"
	"time"

	"github.com/j1vetr/hank-sub000/internal/order"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Snapshot freezes what the customer agreed to pay for when the session
// was opened. The order is built from it once the gateway confirms.
type Snapshot struct {
	Customer   order.Customer  `json:"customer"`
	Items      []order.Item    `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
	CouponID   *int            `json:"couponId,omitempty"`
	CouponCode *string         `json:"couponCode,omitempty"`
}

// Session is one attempt to pay through the gateway iframe.
type Session struct {
	MerchantOID   string          `json:"merchantOid"`
	UserID        int             `json:"userId"`
	Token         string          `json:"-"`
	Status        Status          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Snapshot      Snapshot        `json:"snapshot"`
	OrderNumber   *string         `json:"orderNumber,omitempty"`
	FailureReason *string         `json:"failureReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CreateRequest is the checkout form plus the coupon the customer applied.
type CreateRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	District      string `json:"district"`
	PostalCode    string `json:"postalCode"`
	CouponCode    string `json:"couponCode,omitempty"`
}

func (r CreateRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.CustomerName) == "" {
		errs = append(errs, "customerName is required")
	}
	if !emailPattern.MatchString(strings.TrimSpace(r.CustomerEmail)) {
		errs = append(errs, "customerEmail is invalid")
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		errs = append(errs, "customerPhone is required")
	}
	if strings.TrimSpace(r.Address) == "" {
		errs = append(errs, "address is required")
	}
	if strings.TrimSpace(r.City) == "" {
		errs = append(errs, "city is required")
	}
	if strings.TrimSpace(r.District) == "" {
		errs = append(errs, "district is required")
	}
	return errs
}

func (r CreateRequest) customer() order.Customer {
	return order.Customer{
		Name:       strings.TrimSpace(r.CustomerName),
		Email:      strings.ToLower(strings.TrimSpace(r.CustomerEmail)),
		Phone:      strings.TrimSpace(r.CustomerPhone),
		Address:    strings.TrimSpace(r.Address),
		City:       strings.TrimSpace(r.City),
		District:   strings.TrimSpace(r.District),
		PostalCode: strings.TrimSpace(r.PostalCode),
	}
}

type CreateResult struct {
	Token       string `json:"token"`
	MerchantOID string `json:"merchantOid"`
	IframeURL   string `json:"iframeUrl"`
}

type StatusResult struct {
	Status        Status  `json:"status"`
	OrderNumber   *string `json:"orderNumber,omitempty"`
	FailureReason *string `json:"failureReason,omitempty"`
}

// Totals returns the discount actually granted and the amount to charge.
// The discount never exceeds the subtotal, so the total never drops below
// the shipping fee.
func Totals(subtotal, discount, shipping decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount, subtotal.Sub(discount).Add(shipping)
}

// Kurus converts a lira amount to the integer minor unit the gateway uses.
func Kurus(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
