package reconcile

import (
	"github.com/stockpulse/doi-backend/internal/domain"
)

// SKUNameIndex maps sku_id to the first non-empty sku_name encountered.
// Precedence is determined by Add order: callers feed the most authoritative
// source first and later entries never overwrite earlier ones.
type SKUNameIndex map[string]string

// NewSKUNameIndex builds an index from the sales feed first and the inventory
// feed second, the precedence used by the DOI pipeline.
func NewSKUNameIndex(sales []domain.SalesRecord, inventory []domain.InventoryRecord) SKUNameIndex {
	idx := make(SKUNameIndex)
	for _, r := range sales {
		idx.Add(r.SKUID, r.SKUName)
	}
	for _, r := range inventory {
		idx.Add(r.SKUID, r.SKUName)
	}
	return idx
}

// Add records name for skuID unless the id is already mapped or either value
// is empty.
func (idx SKUNameIndex) Add(skuID, name string) {
	if skuID == "" || name == "" {
		return
	}
	if _, ok := idx[skuID]; ok {
		return
	}
	idx[skuID] = name
}

// Resolve returns the canonical name for skuID, if any.
func (idx SKUNameIndex) Resolve(skuID string) (string, bool) {
	name, ok := idx[skuID]
	return name, ok
}

// Fill returns current when it is already set, otherwise the canonical name
// for skuID, otherwise empty. It never overwrites a present name and never
// invents one.
func (idx SKUNameIndex) Fill(current, skuID string) string {
	if current != "" {
		return current
	}
	if name, ok := idx[skuID]; ok {
		return name
	}
	return ""
}

// CityIndex maps warehouse_name to city. The fill-rate feed is the only source
// carrying both fields together, so it is the sole contributor.
type CityIndex map[string]string

// NewCityIndex scans the fill-rate feed; first non-empty city per warehouse
// wins.
func NewCityIndex(fills []domain.FillRateRecord) CityIndex {
	idx := make(CityIndex)
	for _, r := range fills {
		if r.WarehouseName == "" || r.City == "" {
			continue
		}
		if _, ok := idx[r.WarehouseName]; ok {
			continue
		}
		idx[r.WarehouseName] = r.City
	}
	return idx
}

// Resolve returns the city for a warehouse name, if known.
func (idx CityIndex) Resolve(warehouse string) (string, bool) {
	city, ok := idx[warehouse]
	return city, ok
}
