package address

import (
	"strings"
	"time"
)

type Address struct {
	ID         int       `json:"id"`
	UserID     int       `json:"userId"`
	Title      string    `json:"title"`
	FullName   string    `json:"fullName"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	District   string    `json:"district"`
	PostalCode string    `json:"postalCode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate returns the list of missing fields; empty means usable for shipping.
func (a Address) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Address) == "" {
		errs = append(errs, "address is required")
	}
	if strings.TrimSpace(a.City) == "" {
		errs = append(errs, "city is required")
	}
	if strings.TrimSpace(a.District) == "" {
		errs = append(errs, "district is required")
	}
	return errs
}
