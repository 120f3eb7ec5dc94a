package dealer

import (
	"net/mail"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Application is a business asking to become a reseller.
type Application struct {
	ID          int       `json:"id"`
	CompanyName string    `json:"companyName"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	City        string    `json:"city"`
	TaxNumber   string    `json:"taxNumber"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (a Application) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.CompanyName) == "" {
		errs = append(errs, "companyName is required")
	}
	if strings.TrimSpace(a.ContactName) == "" {
		errs = append(errs, "contactName is required")
	}
	if !validEmail(a.Email) {
		errs = append(errs, "email is invalid")
	}
	if strings.TrimSpace(a.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	return errs
}

type QuoteStatus string

const (
	QuoteNew      QuoteStatus = "new"
	QuoteAnswered QuoteStatus = "answered"
	QuoteClosed   QuoteStatus = "closed"
)

func (s QuoteStatus) Valid() bool {
	return s == QuoteNew || s == QuoteAnswered || s == QuoteClosed
}

// Quote is a bulk price request from the storefront.
type Quote struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Company    *string     `json:"company,omitempty"`
	ProductID  *int        `json:"productId,omitempty"`
	Quantity   int         `json:"quantity"`
	Message    string      `json:"message"`
	Status     QuoteStatus `json:"status"`
	AdminReply *string     `json:"adminReply,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (q Quote) Validate() []string {
	var errs []string
	if strings.TrimSpace(q.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !validEmail(q.Email) {
		errs = append(errs, "email is invalid")
	}
	if q.Quantity < 1 {
		errs = append(errs, "quantity must be at least 1")
	}
	if strings.TrimSpace(q.Message) == "" {
		errs = append(errs, "message is required")
	}
	return errs
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Address == strings.TrimSpace(s)
}
