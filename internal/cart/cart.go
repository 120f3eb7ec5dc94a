package cart

import "github.com/shopspring/decimal"

// Item is one stored cart entry. The same product with different variants
// occupies separate entries.
type Item struct {
	ProductID int  `json:"productId"`
	VariantID *int `json:"variantId,omitempty"`
	Quantity  int  `json:"quantity"`
}

func (i Item) sameLine(productID int, variantID *int) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil || variantID == nil {
		return i.VariantID == nil && variantID == nil
	}
	return *i.VariantID == *variantID
}

// Line is a stored item priced against the current catalog.
type Line struct {
	Item
	Name        string          `json:"name"`
	VariantName string          `json:"variantName,omitempty"`
	Image       string          `json:"image,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Stock       int             `json:"stock"`
}

type View struct {
	Items     []Line          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
