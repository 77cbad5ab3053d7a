package reconcile

import (
	"sort"
	"time"

	"github.com/stockpulse/doi-backend/internal/domain"
)

// FilterByGRNWindow keeps reconciled PO rows whose goods-receipt date falls in
// the closed interval [from, to]. Rows without a GRN date are not yet received
// and cannot satisfy any window.
func FilterByGRNWindow(rows []domain.ReconciledPORow, from, to time.Time) []domain.ReconciledPORow {
	out := make([]domain.ReconciledPORow, 0, len(rows))
	for _, r := range rows {
		if inWindow(r.GRNDate, from, to) {
			out = append(out, r)
		}
	}
	return out
}

// ReceivedByCity sums po_quantity and grn_quantity per city for one product
// over an already window-filtered table.
func ReceivedByCity(rows []domain.ReconciledPORow, product string) []domain.POStatusRow {
	return sumByCity(rows, product, nil, func(dst *domain.POStatusRow, r domain.ReconciledPORow) {
		dst.POQuantity += r.POQuantity
		dst.GRNQuantity += r.GRNQuantity
	})
}

// OpenQuantity sums po_quantity per city over rows with no GRN date for the
// given product: quantity ordered but not yet received. Open rows have no GRN
// date, so the result is independent of any date window.
func OpenQuantity(rows []domain.ReconciledPORow, product string) []domain.POStatusRow {
	open := func(r domain.ReconciledPORow) bool { return r.GRNDate == nil }
	return sumByCity(rows, product, open, func(dst *domain.POStatusRow, r domain.ReconciledPORow) {
		dst.OpenPOQuantity += r.POQuantity
	})
}

func sumByCity(rows []domain.ReconciledPORow, product string, keep func(domain.ReconciledPORow) bool, add func(*domain.POStatusRow, domain.ReconciledPORow)) []domain.POStatusRow {
	byCity := make(map[string]*domain.POStatusRow)
	order := make([]string, 0)

	for _, r := range rows {
		if r.SKUName != product {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		dst, ok := byCity[r.City]
		if !ok {
			dst = &domain.POStatusRow{SKUName: product, City: r.City}
			byCity[r.City] = dst
			order = append(order, r.City)
		}
		add(dst, r)
	}

	out := make([]domain.POStatusRow, 0, len(order))
	for _, city := range order {
		out = append(out, *byCity[city])
	}
	return out
}

// ProductView outer-joins windowed received totals with open totals on
// (city, sku_name). A city present on only one side keeps 0 for the other
// side's measures.
func ProductView(received, open []domain.POStatusRow) []domain.POStatusRow {
	type cityProduct struct {
		City    string
		SKUName string
	}

	byKey := make(map[cityProduct]*domain.POStatusRow, len(received)+len(open))
	order := make([]cityProduct, 0, len(received)+len(open))

	upsert := func(key cityProduct) *domain.POStatusRow {
		row, ok := byKey[key]
		if !ok {
			row = &domain.POStatusRow{SKUName: key.SKUName, City: key.City}
			byKey[key] = row
			order = append(order, key)
		}
		return row
	}

	for _, r := range received {
		row := upsert(cityProduct{City: r.City, SKUName: r.SKUName})
		row.POQuantity += r.POQuantity
		row.GRNQuantity += r.GRNQuantity
	}
	for _, r := range open {
		row := upsert(cityProduct{City: r.City, SKUName: r.SKUName})
		row.OpenPOQuantity += r.OpenPOQuantity
	}

	out := make([]domain.POStatusRow, 0, len(order))
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
