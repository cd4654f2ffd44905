package catalog

import "time"

// Aroma is a fragrance essence offered by an organization.
type Aroma struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Family   string `json:"family,omitempty"`
	IsActive bool   `json:"isActive"`
}

// BottleSize is a refill bottle size in millilitres.
type BottleSize struct {
	SizeMl int    `json:"sizeMl"`
	Label  string `json:"label"`
}

// Recipe defines refill pricing for one aroma at one bottle size.
type Recipe struct {
	AromaID           string `json:"aromaId"`
	AromaName         string `json:"aromaName"`
	BottleSizeMl      int    `json:"bottleSizeMl"`
	BasePrice         int64  `json:"basePrice"`
	StandardEssenceMl int    `json:"standardEssenceMl"`
}

// Product is a ready-made perfume sold at the counter.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	AromaID     *string   `json:"aromaId,omitempty"`
	SizeMl      int       `json:"sizeMl"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query   string
	AromaID string
	InStock *bool
	Sort    string
	Page    int
	Limit   int
}

// ListResult bundles a product page with its total count.
type ListResult struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
