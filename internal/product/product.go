package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product maps to the products table; variants live in product_variants.
type Product struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty"`
	CategoryID     *int             `json:"categoryId,omitempty"`
	Images         []string         `json:"images"`
	Stock          int              `json:"stock"`
	Featured       bool             `json:"featured"`
	Active         bool             `json:"active"`
	Variants       []Variant        `json:"variants"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Variant is a purchasable option (size, colour) with its own stock. A nil
// Price means the product price applies.
type Variant struct {
	ID        int              `json:"id"`
	ProductID int              `json:"productId"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Stock     int              `json:"stock"`
}

func (p Product) Variant(id int) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	CategoryID *int
	Featured   *bool
	ActiveOnly bool
	Search     string
}

// Item is a priced cart line resolved against the catalog.
type Item struct {
	ProductID   int             `json:"productId"`
	VariantID   *int            `json:"variantId,omitempty"`
	Name        string          `json:"name"`
	VariantName string          `json:"variantName,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image,omitempty"`
}

// StockLevel is one row of the inventory report.
type StockLevel struct {
	ProductID   int    `json:"productId"`
	VariantID   *int   `json:"variantId,omitempty"`
	Name        string `json:"name"`
	VariantName string `json:"variantName,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Stock       int    `json:"stock"`
}
