// Package ingest parses the four delimited source feeds into domain records.
// Header matching is tolerant of case and punctuation, a missing required
// column is fatal, and cell-level problems (bad numbers, bad dates) degrade to
// zero or unknown without aborting the file.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stockpulse/doi-backend/internal/domain"
	"github.com/stockpulse/doi-backend/internal/reconcile"
)

// Table names used in error reporting.
const (
	TableSales     = "sales"
	TableInventory = "inventory"
	TablePO        = "purchase_orders"
	TableFillRate  = "fill_rate"
)

// MissingColumnError reports a required column absent from a source table. The
// reader never guesses a default for these.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s: required column %q not found", e.Table, e.Column)
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "(", "", ")", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// header resolves required column names against a raw header row.
type header struct {
	table string
	index map[string]int
}

func newHeader(table string, raw []string) header {
	idx := make(map[string]int, len(raw))
	for i, h := range raw {
		key := normalizeColumnName(h)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return header{table: table, index: idx}
}

// col returns the index of a required column or a MissingColumnError naming
// the table and the column as it appears in the feed.
func (h header) col(name string) (int, error) {
	if i, ok := h.index[normalizeColumnName(name)]; ok {
		return i, nil
	}
	return -1, &MissingColumnError{Table: h.table, Column: name}
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseUnits parses a numeric cell, tolerating thousands separators. Anything
// unparsable counts as 0.
func parseUnits(record []string, idx int) float64 {
	v := cell(record, idx)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

// ReadSales parses the sales feed: Date, SKU Number, SKU Name, City,
// Sales (Qty) - Units.
func ReadSales(r io.Reader) ([]domain.SalesRecord, error) {
	reader := newCSVReader(r)
	raw, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", TableSales, err)
	}
	h := newHeader(TableSales, raw)

	idxDate, err := h.col("Date")
	if err != nil {
		return nil, err
	}
	idxSKU, err := h.col("SKU Number")
	if err != nil {
		return nil, err
	}
	idxName, err := h.col("SKU Name")
	if err != nil {
		return nil, err
	}
	idxCity, err := h.col("City")
	if err != nil {
		return nil, err
	}
	idxUnits, err := h.col("Sales (Qty) - Units")
	if err != nil {
		return nil, err
	}

	var rows []domain.SalesRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", TableSales, err)
		}
		rows = append(rows, domain.SalesRecord{
			Date:       reconcile.ParseSalesDate(cell(record, idxDate)),
			SKUID:      cell(record, idxSKU),
			SKUName:    cell(record, idxName),
			City:       cell(record, idxCity),
			SalesUnits: parseUnits(record, idxUnits),
		})
	}
	return rows, nil
}

// ReadInventory parses the inventory feed: City, SKU Name, SKU Code, Units.
func ReadInventory(r io.Reader) ([]domain.InventoryRecord, error) {
	reader := newCSVReader(r)
	raw, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", TableInventory, err)
	}
	h := newHeader(TableInventory, raw)

	idxCity, err := h.col("City")
	if err != nil {
		return nil, err
	}
	idxName, err := h.col("SKU Name")
	if err != nil {
		return nil, err
	}
	idxSKU, err := h.col("SKU Code")
	if err != nil {
		return nil, err
	}
	idxUnits, err := h.col("Units")
	if err != nil {
		return nil, err
	}

	var rows []domain.InventoryRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", TableInventory, err)
		}
		rows = append(rows, domain.InventoryRecord{
			City:           cell(record, idxCity),
			SKUName:        cell(record, idxName),
			SKUID:          cell(record, idxSKU),
			InventoryUnits: parseUnits(record, idxUnits),
		})
	}
	return rows, nil
}

// ReadPurchaseOrders parses the PO feed: PO No., PO Date, Status,
// Del Location, SKU, SKU Desc, Qty, GRN Quantity.
func ReadPurchaseOrders(r io.Reader) ([]domain.PurchaseOrder, error) {
	reader := newCSVReader(r)
	raw, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", TablePO, err)
	}
	h := newHeader(TablePO, raw)

	idxCode, err := h.col("PO No.")
	if err != nil {
		return nil, err
	}
	idxDate, err := h.col("PO Date")
	if err != nil {
		return nil, err
	}
	idxStatus, err := h.col("Status")
	if err != nil {
		return nil, err
	}
	idxWarehouse, err := h.col("Del Location")
	if err != nil {
		return nil, err
	}
	idxSKU, err := h.col("SKU")
	if err != nil {
		return nil, err
	}
	idxName, err := h.col("SKU Desc")
	if err != nil {
		return nil, err
	}
	idxQty, err := h.col("Qty")
	if err != nil {
		return nil, err
	}
	idxGRNQty, err := h.col("GRN Quantity")
	if err != nil {
		return nil, err
	}

	var rows []domain.PurchaseOrder
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", TablePO, err)
		}
		rows = append(rows, domain.PurchaseOrder{
			POCode:        cell(record, idxCode),
			PODate:        reconcile.ParsePODate(cell(record, idxDate)),
			Status:        domain.ParsePOStatus(cell(record, idxStatus)),
			WarehouseName: cell(record, idxWarehouse),
			SKUID:         cell(record, idxSKU),
			SKUName:       cell(record, idxName),
			POQuantity:    parseUnits(record, idxQty),
			GRNQuantity:   parseUnits(record, idxGRNQty),
		})
	}
	return rows, nil
}

// ReadFillRates parses the fill-rate feed: PO Date, PO Code, GRN Date, SKU ID,
// SKU Name, City, Warehouse Name, PO Quantity, GRN Quantity.
func ReadFillRates(r io.Reader) ([]domain.FillRateRecord, error) {
	reader := newCSVReader(r)
	raw, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", TableFillRate, err)
	}
	h := newHeader(TableFillRate, raw)

	idxPODate, err := h.col("PO Date")
	if err != nil {
		return nil, err
	}
	idxCode, err := h.col("PO Code")
	if err != nil {
		return nil, err
	}
	idxGRNDate, err := h.col("GRN Date")
	if err != nil {
		return nil, err
	}
	idxSKU, err := h.col("SKU ID")
	if err != nil {
		return nil, err
	}
	idxName, err := h.col("SKU Name")
	if err != nil {
		return nil, err
	}
	idxCity, err := h.col("City")
	if err != nil {
		return nil, err
	}
	idxWarehouse, err := h.col("Warehouse Name")
	if err != nil {
		return nil, err
	}
	idxQty, err := h.col("PO Quantity")
	if err != nil {
		return nil, err
	}
	idxGRNQty, err := h.col("GRN Quantity")
	if err != nil {
		return nil, err
	}

	var rows []domain.FillRateRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", TableFillRate, err)
		}
		rows = append(rows, domain.FillRateRecord{
			PODate:        reconcile.ParseFillRateDate(cell(record, idxPODate)),
			POCode:        cell(record, idxCode),
			GRNDate:       reconcile.ParseFillRateDate(cell(record, idxGRNDate)),
			SKUID:         cell(record, idxSKU),
			SKUName:       cell(record, idxName),
			City:          cell(record, idxCity),
			WarehouseName: cell(record, idxWarehouse),
			POQuantity:    parseUnits(record, idxQty),
			GRNQuantity:   parseUnits(record, idxGRNQty),
		})
	}
	return rows, nil
}

// openAndRead is shared by the file-path variants below.
func openAndRead[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}

// ReadSalesFile parses a sales feed from disk.
func ReadSalesFile(path string) ([]domain.SalesRecord, error) {
	return openAndRead(path, ReadSales)
}

// ReadInventoryFile parses an inventory feed from disk.
func ReadInventoryFile(path string) ([]domain.InventoryRecord, error) {
	return openAndRead(path, ReadInventory)
}

// ReadPurchaseOrdersFile parses a PO feed from disk.
func ReadPurchaseOrdersFile(path string) ([]domain.PurchaseOrder, error) {
	return openAndRead(path, ReadPurchaseOrders)
}

// ReadFillRatesFile parses a fill-rate feed from disk.
func ReadFillRatesFile(path string) ([]domain.FillRateRecord, error) {
	return openAndRead(path, ReadFillRates)
}
