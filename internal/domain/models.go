// internal/domain/models.go
package domain

import "time"

// SalesRecord is one row from the sales transactions feed. Date is nil when the
// source value could not be parsed; such rows are excluded from lookback
// filtering but otherwise kept.
type SalesRecord struct {
	Date       *time.Time `json:"date"`
	SKUID      string     `json:"sku_id"`
	SKUName    string     `json:"sku_name"`
	City       string     `json:"city"`
	SalesUnits float64    `json:"sales_units"`
}

// InventoryRecord is one row from the inventory snapshot feed.
type InventoryRecord struct {
	City           string  `json:"city"`
	SKUID          string  `json:"sku_id"`
	SKUName        string  `json:"sku_name"`
	InventoryUnits float64 `json:"inventory_units"`
}

// PurchaseOrder is one row from the purchase-order feed.
type PurchaseOrder struct {
	POCode        string     `json:"po_code"`
	PODate        *time.Time `json:"po_date"`
	Status        POStatus   `json:"status"`
	WarehouseName string     `json:"warehouse_name"`
	SKUID         string     `json:"sku_id"`
	SKUName       string     `json:"sku_name"`
	POQuantity    float64    `json:"po_quantity"`
	GRNQuantity   float64    `json:"grn_quantity"`
}

// FillRateRecord is one row from the goods-receipt feed. A nil GRNDate means the
// PO has not been received yet.
type FillRateRecord struct {
	PODate        *time.Time `json:"po_date"`
	GRNDate       *time.Time `json:"grn_date"`
	POCode        string     `json:"po_code"`
	City          string     `json:"city"`
	WarehouseName string     `json:"warehouse_name"`
	SKUID         string     `json:"sku_id"`
	SKUName       string     `json:"sku_name"`
	POQuantity    float64    `json:"po_quantity"`
	GRNQuantity   float64    `json:"grn_quantity"`
}

// ReconciledRow is one row of the merged sales/inventory table, keyed by
// (City, SKUID) before aggregation and by the selected dimensions after.
type ReconciledRow struct {
	SKUID          string  `json:"sku_id,omitempty" db:"sku_id"`
	SKUName        string  `json:"sku_name,omitempty" db:"sku_name"`
	City           string  `json:"city,omitempty" db:"city"`
	SalesUnits     float64 `json:"sales_units" db:"sales_units"`
	InventoryUnits float64 `json:"inventory_units" db:"inventory_units"`
	DOI            float64 `json:"doi" db:"doi"`
}

// ReconciledPORow is one row of the merged PO/fill-rate lifecycle table.
type ReconciledPORow struct {
	PODate      *time.Time `json:"po_date"`
	POCode      string     `json:"po_code"`
	City        string     `json:"city"`
	SKUID       string     `json:"sku_id"`
	SKUName     string     `json:"sku_name"`
	POQuantity  float64    `json:"po_quantity"`
	GRNQuantity float64    `json:"grn_quantity"`
	GRNDate     *time.Time `json:"grn_date"`
	Status      POStatus   `json:"status"`
}

// POStatusRow is one row of the final per-product PO status view: received
// quantities inside the GRN window joined with still-open quantities.
type POStatusRow struct {
	SKUName        string  `json:"sku_name" db:"sku_name"`
	City           string  `json:"city" db:"city"`
	POQuantity     float64 `json:"po_quantity" db:"po_quantity"`
	GRNQuantity    float64 `json:"grn_quantity" db:"grn_quantity"`
	OpenPOQuantity float64 `json:"open_po_quantity" db:"open_po_quantity"`
}

// SourceBatch is one invocation's worth of parsed input tables. The core treats
// it as immutable.
type SourceBatch struct {
	Sales     []SalesRecord
	Inventory []InventoryRecord
	Orders    []PurchaseOrder
	FillRates []FillRateRecord
}
