package products

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed catalog.json
var catalogJSON []byte

// DefaultCatalog returns a fresh copy of the bundled laptop catalog.
func DefaultCatalog() []Product {
	items, err := ParseCatalog(catalogJSON)
	if err != nil {
		panic(fmt.Sprintf("products: bundled catalog is invalid: %v", err))
	}
	return items
}

// ParseCatalog decodes a JSON array of products.
func ParseCatalog(data []byte) ([]Product, error) {
	var items []Product
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("products: decode catalog: %w", err)
	}
	return items, nil
}
