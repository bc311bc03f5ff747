package enums

import "fmt"

// Product identifies the two consumables tracked per site.
type Product string

const (
	ProductIce    Product = "ice"
	ProductBottle Product = "bottle"
)

var validProducts = []Product{
	ProductIce,
	ProductBottle,
}

// Products returns the canonical product list in seed order.
func Products() []Product {
	out := make([]Product, len(validProducts))
	copy(out, validProducts)
	return out
}

// IsValid reports whether the value matches the canonical product enum.
func (p Product) IsValid() bool {
	for _, candidate := range validProducts {
		if candidate == p {
			return true
		}
	}
	return false
}

// Label returns the operator-facing unit label for the product.
func (p Product) Label() string {
	switch p {
	case ProductIce:
		return "bolsas de hielo"
	case ProductBottle:
		return "botellones"
	}
	return string(p)
}

// ParseProduct converts the raw string to Product.
func ParseProduct(value string) (Product, error) {
	for _, candidate := range validProducts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product %q", value)
}
