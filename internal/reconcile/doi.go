package reconcile

import (
	"math"
	"time"

	"github.com/stockpulse/doi-backend/internal/domain"
)

// DOI computes days of inventory for one aggregated row: inventory divided by
// the average daily sales rate over the lookback window, rounded half to even
// (pinned by tests at the .5 boundary).
//
// With zero sales there is no velocity signal; business rule is to report the
// raw on-hand count verbatim as a placeholder rather than a true day count.
func DOI(salesUnits, inventoryUnits float64, lookbackDays int) float64 {
	if salesUnits > 0 {
		return math.RoundToEven(inventoryUnits / (salesUnits / float64(lookbackDays)))
	}
	return inventoryUnits
}

// ApplyDOI returns a copy of rows with the DOI column populated.
func ApplyDOI(rows []domain.ReconciledRow, lookbackDays int) []domain.ReconciledRow {
	out := make([]domain.ReconciledRow, len(rows))
	for i, r := range rows {
		r.DOI = DOI(r.SalesUnits, r.InventoryUnits, lookbackDays)
		out[i] = r
	}
	return out
}

// FilterSalesWindow keeps sales rows from the trailing lookbackDays-day window
// anchored at the most recent parsable sales date (a closed interval of
// exactly lookbackDays calendar days). Rows with unknown dates cannot satisfy
// a date filter and are left out. Returns an empty slice when no row carries a
// parsable date.
func FilterSalesWindow(sales []domain.SalesRecord, lookbackDays int) []domain.SalesRecord {
	var anchor *time.Time
	for i := range sales {
		d := sales[i].Date
		if d == nil {
			continue
		}
		if anchor == nil || d.After(*anchor) {
			anchor = d
		}
	}
	if anchor == nil {
		return []domain.SalesRecord{}
	}

	start := anchor.AddDate(0, 0, -(lookbackDays - 1))
	out := make([]domain.SalesRecord, 0, len(sales))
	for _, r := range sales {
		if r.Date == nil || r.Date.Before(start) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GroupSales collapses windowed sales to one row per (sku_id, city), summing
// units and keeping the first non-empty sku_name seen for the pair.
func GroupSales(sales []domain.SalesRecord) []domain.ReconciledRow {
	byKey := make(map[skuCityKey]*domain.ReconciledRow)
	order := make([]skuCityKey, 0)

	for _, r := range sales {
		key := skuCityKey{City: r.City, SKUID: r.SKUID}
		row, ok := byKey[key]
		if !ok {
			row = &domain.ReconciledRow{SKUID: r.SKUID, City: r.City}
			byKey[key] = row
			order = append(order, key)
		}
		row.SalesUnits += r.SalesUnits
		if row.SKUName == "" {
			row.SKUName = r.SKUName
		}
	}

	out := make([]domain.ReconciledRow, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}
