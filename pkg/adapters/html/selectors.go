package html

import "github.com/aretw0/itt/pkg/core"

// Selectors maps every extracted field to a CSS selector. The first element
// matching a selector, in document order, provides the value.
type Selectors struct {
	CustomerName string
	PackageTitle string
	Package      map[string]string
	Hotel        map[string]string
}

// DefaultSelectors returns the selectors of the itinerary builder page.
func DefaultSelectors() Selectors {
	return Selectors{
		CustomerName: "#customerName",
		PackageTitle: "#packageTitle",
		Package: map[string]string{
			core.FieldPrice:       `.price, [class*="price"], [id*="price"]`,
			core.FieldDuration:    `.duration, [class*="duration"], [id*="duration"]`,
			core.FieldLocation:    `.location, [class*="location"], [id*="location"]`,
			core.FieldDescription: `.description, [class*="description"], [id*="description"]`,
		},
		Hotel: map[string]string{
			core.FieldHotelName:     `.hotel-name, [class*="hotel"], [id*="hotel"]`,
			core.FieldHotelRating:   `.rating, [class*="rating"], [id*="rating"]`,
			core.FieldHotelLocation: `.hotel-location, [class*="hotel-location"]`,
			core.FieldAmenities:     `.amenities, [class*="amenities"], [id*="amenities"]`,
		},
	}
}
