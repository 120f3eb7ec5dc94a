package banner

import "time"

// Banner is a storefront hero slide.
type Banner struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Link      *string   `json:"link,omitempty"`
	Alt       *string   `json:"alt,omitempty"`
	SortOrder int       `json:"sortOrder"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
