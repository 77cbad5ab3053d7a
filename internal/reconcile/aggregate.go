package reconcile

import (
	"sort"

	"github.com/stockpulse/doi-backend/internal/domain"
)

// Aggregate groups the merged sales/inventory table by the dimension set the
// selection names and sums both measures. Every distinct key combination in
// the input survives, including empty dimension values; nothing is implicitly
// filtered beyond the entity narrowing of the BySKU/ByCity kinds. The input
// slice is never mutated.
func Aggregate(rows []domain.ReconciledRow, sel domain.ViewSelection) []domain.ReconciledRow {
	switch sel.Kind {
	case domain.ViewProductWise:
		return groupBy(rows, func(r domain.ReconciledRow) domain.ReconciledRow {
			return domain.ReconciledRow{SKUName: r.SKUName}
		})
	case domain.ViewCityWise:
		return groupBy(rows, func(r domain.ReconciledRow) domain.ReconciledRow {
			return domain.ReconciledRow{City: r.City}
		})
	case domain.ViewBySKU:
		return groupBy(filterRows(rows, func(r domain.ReconciledRow) bool {
			return r.SKUName == sel.Entity
		}), func(r domain.ReconciledRow) domain.ReconciledRow {
			return domain.ReconciledRow{SKUName: r.SKUName, City: r.City}
		})
	case domain.ViewByCity:
		return groupBy(filterRows(rows, func(r domain.ReconciledRow) bool {
			return r.City == sel.Entity
		}), func(r domain.ReconciledRow) domain.ReconciledRow {
			return domain.ReconciledRow{City: r.City, SKUName: r.SKUName}
		})
	}

	// ViewNone: nothing selected, nothing shown.
	return []domain.ReconciledRow{}
}

type dimKey struct {
	SKUName string
	City    string
}

// groupBy sums SalesUnits and InventoryUnits per distinct dimension value of
// the key projection.
func groupBy(rows []domain.ReconciledRow, project func(domain.ReconciledRow) domain.ReconciledRow) []domain.ReconciledRow {
	byKey := make(map[dimKey]*domain.ReconciledRow)
	order := make([]dimKey, 0)

	for _, r := range rows {
		dims := project(r)
		key := dimKey{SKUName: dims.SKUName, City: dims.City}
		agg, ok := byKey[key]
		if !ok {
			agg = &domain.ReconciledRow{SKUName: dims.SKUName, City: dims.City}
			byKey[key] = agg
			order = append(order, key)
		}
		agg.SalesUnits += r.SalesUnits
		agg.InventoryUnits += r.InventoryUnits
	}

	out := make([]domain.ReconciledRow, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SKUName != out[j].SKUName {
			return out[i].SKUName < out[j].SKUName
		}
		return out[i].City < out[j].City
	})

	return out
}

func filterRows(rows []domain.ReconciledRow, keep func(domain.ReconciledRow) bool) []domain.ReconciledRow {
	out := make([]domain.ReconciledRow, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
