// README: Service package catalog and price quotes.
package pricing

type Package struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ServiceType string  `json:"serviceType"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	DurationMin int     `json:"durationMin"`
	Active      bool    `json:"active"`
}

// Quote is the price breakdown a package resolves to at booking time.
type Quote struct {
	ServiceType     string  `json:"serviceType"`
	OriginalPrice   float64 `json:"originalPrice"`
	DiscountApplied float64 `json:"discountApplied"`
	TotalPrice      float64 `json:"totalPrice"`
}

func (p Package) Quote() Quote {
	return Quote{
		ServiceType:     p.ServiceType,
		OriginalPrice:   p.Price,
		DiscountApplied: p.Discount,
		TotalPrice:      p.Price - p.Discount,
	}
}
