package checkout

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FormData is what the shopper types into the contact and address steps.
type FormData struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	District      string `json:"district"`
	PostalCode    string `json:"postalCode"`
}

func (f FormData) ValidateContact() []string {
	var errs []string
	if strings.TrimSpace(f.CustomerName) == "" {
		errs = append(errs, "name is required")
	}
	if !emailPattern.MatchString(f.CustomerEmail) {
		errs = append(errs, "a valid email is required")
	}
	if strings.TrimSpace(f.CustomerPhone) == "" {
		errs = append(errs, "phone is required")
	}
	return errs
}

func (f FormData) ValidateAddress() []string {
	var errs []string
	if strings.TrimSpace(f.Address) == "" {
		errs = append(errs, "address is required")
	}
	if strings.TrimSpace(f.City) == "" {
		errs = append(errs, "city is required")
	}
	if strings.TrimSpace(f.District) == "" {
		errs = append(errs, "district is required")
	}
	return errs
}

// SavedAddress is an entry of the account's address book.
type SavedAddress struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postalCode"`
}

// PickAddress returns the saved address with id mainID, falling back to the
// first one when mainID is nil or no longer present.
func PickAddress(saved []SavedAddress, mainID *int) (SavedAddress, bool) {
	if len(saved) == 0 {
		return SavedAddress{}, false
	}
	if mainID != nil {
		for _, a := range saved {
			if a.ID == *mainID {
				return a, true
			}
		}
	}
	return saved[0], true
}

// Prefill copies a saved address into empty fields only.
func (f *FormData) Prefill(a SavedAddress) {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	fill(&f.CustomerName, a.FullName)
	fill(&f.CustomerPhone, a.Phone)
	fill(&f.Address, a.Address)
	fill(&f.City, a.City)
	fill(&f.District, a.District)
	fill(&f.PostalCode, a.PostalCode)
}
