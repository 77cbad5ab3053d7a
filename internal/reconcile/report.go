// Package reconcile merges the four source feeds (sales, inventory, purchase
// orders, fill rate) into the DOI and PO status report tables. Everything in
// this package is synchronous and invocation-scoped: inputs are treated as
// immutable, results are fresh slices, and no state survives a call.
package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/stockpulse/doi-backend/internal/domain"
)

// Lookback window bounds accepted by the DOI pipeline.
const (
	MinLookbackDays = 1
	MaxLookbackDays = 60
)

// ErrLookbackOutOfRange is returned when the lookback parameter leaves [1, 60].
var ErrLookbackOutOfRange = errors.New("lookback days out of range")

// DOIReport runs the sales/inventory pipeline: window-filter sales, group,
// outer-join with inventory, aggregate by the selected dimensions, and compute
// DOI per aggregated row.
func DOIReport(batch domain.SourceBatch, lookbackDays int, sel domain.ViewSelection) ([]domain.ReconciledRow, error) {
	merged, err := MergedDOITable(batch, lookbackDays)
	if err != nil {
		return nil, err
	}
	return ApplyDOI(Aggregate(merged, sel), lookbackDays), nil
}

// MergedDOITable produces the pre-aggregation merged sales/inventory table.
// The API layer also uses it to enumerate the SKU and city filter options.
func MergedDOITable(batch domain.SourceBatch, lookbackDays int) ([]domain.ReconciledRow, error) {
	if lookbackDays < MinLookbackDays || lookbackDays > MaxLookbackDays {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrLookbackOutOfRange, lookbackDays, MinLookbackDays, MaxLookbackDays)
	}

	windowed := FilterSalesWindow(batch.Sales, lookbackDays)
	grouped := GroupSales(windowed)
	skuIdx := NewSKUNameIndex(batch.Sales, batch.Inventory)

	return MergeSalesInventory(grouped, batch.Inventory, skuIdx), nil
}

// ReconcilePO merges the PO and fill-rate feeds into the lifecycle table the
// PO status view is computed from.
func ReconcilePO(batch domain.SourceBatch) []domain.ReconciledPORow {
	cityIdx := NewCityIndex(batch.FillRates)
	return MergePOFillRate(batch.Orders, batch.FillRates, cityIdx)
}

// POStatusReport produces the per-product PO status view: received quantities
// whose GRN date falls in [from, to], outer-joined with open quantities that
// have no GRN date yet. An empty result is a valid outcome, not an error.
func POStatusReport(batch domain.SourceBatch, product string, from, to time.Time) ([]domain.POStatusRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid window: to %s before from %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	reconciled := ReconcilePO(batch)
	windowed := FilterByGRNWindow(reconciled, from, to)
	received := ReceivedByCity(windowed, product)
	open := OpenQuantity(reconciled, product)

	return ProductView(received, open), nil
}
