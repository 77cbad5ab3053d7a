package reconcile

import (
	"sort"
	"time"

	"github.com/stockpulse/doi-backend/internal/domain"
)

// The two joins below spell out a coalescing rule per field: sum for measures,
// left-then-right-then-index fallback for descriptive fields. Numeric
// coalescing sums both sides treating a missing side as 0; both sides are
// assumed to carry non-overlapping contributions to the same key, otherwise
// the sum double counts. Composite keys are assumed unique within each source;
// duplicate keys silently aggregate.

// skuCityKey keys the sales/inventory join.
type skuCityKey struct {
	City  string
	SKUID string
}

// MergeSalesInventory performs a full outer join of grouped sales and the
// inventory snapshot on (city, sku_id). Rows present on only one side are kept
// with the other side's measure at 0. SKU names come from the sales side,
// falling back to the canonical index.
func MergeSalesInventory(sales []domain.ReconciledRow, inventory []domain.InventoryRecord, skuIdx SKUNameIndex) []domain.ReconciledRow {
	byKey := make(map[skuCityKey]*domain.ReconciledRow, len(sales)+len(inventory))
	order := make([]skuCityKey, 0, len(sales)+len(inventory))

	for _, s := range sales {
		key := skuCityKey{City: s.City, SKUID: s.SKUID}
		row, ok := byKey[key]
		if !ok {
			row = &domain.ReconciledRow{SKUID: s.SKUID, City: s.City}
			byKey[key] = row
			order = append(order, key)
		}
		row.SalesUnits += s.SalesUnits
		if row.SKUName == "" {
			row.SKUName = s.SKUName
		}
	}

	for _, inv := range inventory {
		key := skuCityKey{City: inv.City, SKUID: inv.SKUID}
		row, ok := byKey[key]
		if !ok {
			row = &domain.ReconciledRow{SKUID: inv.SKUID, City: inv.City}
			byKey[key] = row
			order = append(order, key)
		}
		row.InventoryUnits += inv.InventoryUnits
	}

	merged := make([]domain.ReconciledRow, 0, len(order))
	for _, key := range order {
		row := *byKey[key]
		row.SKUName = skuIdx.Fill(row.SKUName, row.SKUID)
		merged = append(merged, row)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].City != merged[j].City {
			return merged[i].City < merged[j].City
		}
		return merged[i].SKUID < merged[j].SKUID
	})

	return merged
}

// poKey keys the PO/fill-rate join. Unknown dates use a shared sentinel key
// component (see dateKey).
type poKey struct {
	PODate string
	POCode string
	City   string
	SKUID  string
}

// MergePOFillRate merges the purchase-order feed and the fill-rate feed into
// one PO lifecycle table:
//
//   - only orders still in an open status contribute from the PO side; orders
//     in any other status are presumed already represented by the fill-rate
//     feed,
//   - the PO feed carries a warehouse name instead of a city, resolved through
//     the canonical city index,
//   - po_quantity and grn_quantity are sum-coalesced across the two sides,
//   - sku_name comes from the fill-rate side, backfilled from names observed
//     elsewhere in the merged table for the same sku_id,
//   - status defaults to "Completed" for rows with no open-PO counterpart.
func MergePOFillRate(orders []domain.PurchaseOrder, fills []domain.FillRateRecord, cityIdx CityIndex) []domain.ReconciledPORow {
	byKey := make(map[poKey]*domain.ReconciledPORow, len(fills)+len(orders))
	order := make([]poKey, 0, len(fills)+len(orders))

	upsert := func(key poKey, poDate *time.Time) *domain.ReconciledPORow {
		row, ok := byKey[key]
		if !ok {
			row = &domain.ReconciledPORow{
				PODate: poDate,
				POCode: key.POCode,
				City:   key.City,
				SKUID:  key.SKUID,
			}
			byKey[key] = row
			order = append(order, key)
		}
		return row
	}

	for _, f := range fills {
		key := poKey{PODate: dateKey(f.PODate), POCode: f.POCode, City: f.City, SKUID: f.SKUID}
		row := upsert(key, f.PODate)
		row.POQuantity += f.POQuantity
		row.GRNQuantity += f.GRNQuantity
		if row.SKUName == "" {
			row.SKUName = f.SKUName
		}
		if row.GRNDate == nil {
			row.GRNDate = f.GRNDate
		}
	}

	for _, po := range orders {
		if !po.Status.IsOpen() {
			continue
		}
		city, _ := cityIdx.Resolve(po.WarehouseName)
		key := poKey{PODate: dateKey(po.PODate), POCode: po.POCode, City: city, SKUID: po.SKUID}
		row := upsert(key, po.PODate)
		row.POQuantity += po.POQuantity
		row.GRNQuantity += po.GRNQuantity
		row.Status = po.Status
	}

	// Canonical sku names from the merged table itself: first non-empty name
	// per sku_id, used to backfill rows the fill-rate feed never named.
	skuIdx := make(SKUNameIndex)
	for _, key := range order {
		skuIdx.Add(key.SKUID, byKey[key].SKUName)
	}

	merged := make([]domain.ReconciledPORow, 0, len(order))
	for _, key := range order {
		row := *byKey[key]
		row.SKUName = skuIdx.Fill(row.SKUName, row.SKUID)
		if row.Status == "" {
			row.Status = domain.StatusCompleted
		}
		merged = append(merged, row)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if ka, kb := dateKey(a.PODate), dateKey(b.PODate); ka != kb {
			return ka < kb
		}
		if a.POCode != b.POCode {
			return a.POCode < b.POCode
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.SKUID < b.SKUID
	})

	return merged
}
