package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Product is the catalog view of an item, as handed to the cart by the
// storefront when the user adds something. The catalog service owns it;
// we only read it.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
}

type CartItem struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
}

// UnmarshalJSON tolerates the sloppy payloads the cart API and old stored
// snapshots produce: numeric fields may arrive as numbers or strings, and
// quantity may be fractional. Coercion failures leave the zero value, which
// NormalizeItems then drops.
func (it *CartItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        any    `json:"id"`
		Name      string `json:"name"`
		UnitPrice any    `json:"unit_price"`
		Image     string `json:"image"`
		Category  string `json:"category"`
		Quantity  any    `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	it.ID = int64(coerceFloat(raw.ID))
	it.Name = raw.Name
	it.UnitPrice = coerceFloat(raw.UnitPrice)
	it.Image = raw.Image
	it.Category = raw.Category
	it.Quantity = int(coerceFloat(raw.Quantity))
	return nil
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

const (
	defaultImage    = "/assets/img/placeholder.jpg"
	defaultCategory = "General"
)

// NormalizeItems validates and cleans a raw item list. Items without a
// positive id, with a negative or non-finite price, or with a quantity
// below 1 are dropped rather than stored in a broken state. Missing image
// and category fields get defaults. Normalization is idempotent.
func NormalizeItems(items []CartItem) []CartItem {
	out := make([]CartItem, 0, len(items))
	for _, it := range items {
		if it.ID <= 0 {
			continue
		}
		if it.UnitPrice < 0 || math.IsNaN(it.UnitPrice) || math.IsInf(it.UnitPrice, 0) {
			continue
		}
		if it.Quantity < 1 {
			continue
		}
		if it.Image == "" {
			it.Image = defaultImage
		}
		if it.Category == "" {
			it.Category = defaultCategory
		}
		out = append(out, it)
	}
	return out
}

// NewCartItem builds a normalized cart item from a catalog product.
func NewCartItem(p Product, quantity int) CartItem {
	if quantity < 1 {
		quantity = 1
	}
	it := CartItem{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Image:     p.Image,
		Category:  p.Category,
		Quantity:  quantity,
	}
	if it.Image == "" {
		it.Image = defaultImage
	}
	if it.Category == "" {
		it.Category = defaultCategory
	}
	return it
}

// CountItems sums quantities, treating anything invalid as zero.
func CountItems(items []CartItem) int {
	total := 0
	for _, it := range items {
		if it.Quantity > 0 {
			total += it.Quantity
		}
	}
	return total
}

// TotalAmount sums unit price times quantity. Malformed entries that slipped
// into a snapshot count as zero instead of breaking the total.
func TotalAmount(items []CartItem) float64 {
	total := 0.0
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice <= 0 || math.IsNaN(it.UnitPrice) {
			continue
		}
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}
