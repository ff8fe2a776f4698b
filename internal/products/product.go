package products

import "strings"

// Specs is the structured hardware summary of a catalog entry.
type Specs struct {
	Processor string `json:"processor,omitempty"`
	RAM       string `json:"ram,omitempty"`
	Storage   string `json:"storage,omitempty"`
	Screen    string `json:"screen,omitempty"`
	Graphics  string `json:"graphics,omitempty"`
}

// Product is a read-only catalog entry.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Specs       Specs    `json:"specs"`
	ImageURL    string   `json:"image_url,omitempty"`
	InStock     bool     `json:"in_stock"`
	Rating      float64  `json:"rating"`
	Color       string   `json:"color,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// BrandFilter is a case-insensitive substring condition on Product.Brand.
// Negate inverts it.
type BrandFilter struct {
	Pattern string `json:"pattern"`
	Negate  bool   `json:"negate,omitempty"`
}

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	Category string       `json:"category,omitempty"`
	Brand    *BrandFilter `json:"brand,omitempty"`
	Limit    int          `json:"limit,omitempty"`
}

// Matches reports whether p passes every active condition.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && !containsFold(p.Category, f.Category) {
		return false
	}
	if f.Brand != nil && f.Brand.Pattern != "" {
		if containsFold(p.Brand, f.Brand.Pattern) == f.Brand.Negate {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
