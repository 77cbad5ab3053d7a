package domain

import (
	"fmt"
	"strings"
)

// ViewKind enumerates the DOI summary views the caller can request.
type ViewKind string

const (
	ViewNone        ViewKind = "none"
	ViewProductWise ViewKind = "product" // pan-India, grouped by SKU name
	ViewCityWise    ViewKind = "city"    // pan-India, grouped by city
	ViewBySKU       ViewKind = "sku"     // one SKU across cities
	ViewByCity      ViewKind = "by_city" // one city across SKUs
)

// ViewSelection is an immutable, explicit selection of the DOI dimension set,
// passed into the aggregator as a single value. The BySKU and ByCity kinds
// carry the entity they narrow to.
type ViewSelection struct {
	Kind ViewKind
	// Entity is the SKU name for ViewBySKU, the city for ViewByCity, and empty
	// otherwise.
	Entity string
}

// SelectNone returns the empty selection; aggregation over it yields no rows.
func SelectNone() ViewSelection { return ViewSelection{Kind: ViewNone} }

// SelectProductWise groups the whole table by SKU name.
func SelectProductWise() ViewSelection { return ViewSelection{Kind: ViewProductWise} }

// SelectCityWise groups the whole table by city.
func SelectCityWise() ViewSelection { return ViewSelection{Kind: ViewCityWise} }

// SelectSKU narrows to one SKU name and groups by (SKU name, city).
func SelectSKU(name string) ViewSelection {
	return ViewSelection{Kind: ViewBySKU, Entity: name}
}

// SelectCity narrows to one city and groups by (city, SKU name).
func SelectCity(city string) ViewSelection {
	return ViewSelection{Kind: ViewByCity, Entity: city}
}

// ParseViewSelection builds a selection from the request-level view, sku and
// city parameters. sku/city are only consulted for the kinds that need them.
func ParseViewSelection(view, sku, city string) (ViewSelection, error) {
	switch ViewKind(strings.ToLower(strings.TrimSpace(view))) {
	case ViewNone, "":
		return SelectNone(), nil
	case ViewProductWise:
		return SelectProductWise(), nil
	case ViewCityWise:
		return SelectCityWise(), nil
	case ViewBySKU:
		if sku == "" {
			return ViewSelection{}, fmt.Errorf("view %q requires a sku", view)
		}
		return SelectSKU(sku), nil
	case ViewByCity:
		if city == "" {
			return ViewSelection{}, fmt.Errorf("view %q requires a city", view)
		}
		return SelectCity(city), nil
	}

	return ViewSelection{}, fmt.Errorf("unknown view %q", view)
}
