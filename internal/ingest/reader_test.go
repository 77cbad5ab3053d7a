package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/doi-backend/internal/domain"
)

func TestReadSales(t *testing.T) {
	csv := strings.Join([]string{
		"Date,SKU Number,SKU Name,City,Sales (Qty) - Units",
		"10/3/2024,S1,Cola,Delhi,\"1,250\"",
		"not-a-date,S2,Chips,Mumbai,20",
		"11/3/2024,S3,Juice,Delhi,oops",
	}, "\n")

	rows, err := ReadSales(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NotNil(t, rows[0].Date)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), *rows[0].Date)
	assert.Equal(t, "S1", rows[0].SKUID)
	assert.Equal(t, 1250.0, rows[0].SalesUnits, "thousands separator tolerated")

	assert.Nil(t, rows[1].Date, "unparsable date kept as unknown")
	assert.Equal(t, 20.0, rows[1].SalesUnits)

	assert.Equal(t, 0.0, rows[2].SalesUnits, "unparsable quantity counts as zero")
}

func TestReadSales_HeaderMatchingIsTolerant(t *testing.T) {
	csv := strings.Join([]string{
		"date , sku_number,SKU NAME,city,sales (qty) - units",
		"10/3/2024,S1,Cola,Delhi,5",
	}, "\n")

	rows, err := ReadSales(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cola", rows[0].SKUName)
	assert.Equal(t, 5.0, rows[0].SalesUnits)
}

func TestReadSales_MissingColumn(t *testing.T) {
	csv := "Date,SKU Number,SKU Name,City\n10/3/2024,S1,Cola,Delhi\n"

	_, err := ReadSales(strings.NewReader(csv))
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, TableSales, missing.Table)
	assert.Equal(t, "Sales (Qty) - Units", missing.Column)
}

func TestReadInventory(t *testing.T) {
	csv := strings.Join([]string{
		"City,SKU Name,SKU Code,Units",
		"Delhi,Cola,S1,350",
		"Mumbai,,S2,",
	}, "\n")

	rows, err := ReadInventory(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 350.0, rows[0].InventoryUnits)
	assert.Equal(t, "", rows[1].SKUName, "empty descriptive cells stay empty")
	assert.Equal(t, 0.0, rows[1].InventoryUnits)
}

func TestReadPurchaseOrders(t *testing.T) {
	csv := strings.Join([]string{
		"PO No.,PO Date,Status,Del Location,SKU,SKU Desc,Qty,GRN Quantity",
		"PO-1,2 Mar 2024 10:30 AM,pending_grn,WH-D,S1,Cola,10,0",
		"PO-2,,COMPLETED,WH-M,S2,Chips,15,15",
	}, "\n")

	rows, err := ReadPurchaseOrders(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].PODate)
	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), *rows[0].PODate)
	assert.Equal(t, domain.StatusPendingGRN, rows[0].Status)
	assert.True(t, rows[0].Status.IsOpen())

	assert.Nil(t, rows[1].PODate)
	assert.Equal(t, domain.POStatus("COMPLETED"), rows[1].Status, "unknown labels pass through verbatim")
	assert.False(t, rows[1].Status.IsOpen())
}

func TestReadFillRates(t *testing.T) {
	csv := strings.Join([]string{
		"PO Date,PO Code,GRN Date,SKU ID,SKU Name,City,Warehouse Name,PO Quantity,GRN Quantity",
		"20-2-2024,PO-0,10-3-2024,S1,Cola,Delhi,WH-D,30,28",
		"21-2-2024,PO-9,,S2,Chips,Mumbai,WH-M,12,0",
	}, "\n")

	rows, err := ReadFillRates(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].GRNDate)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), *rows[0].GRNDate)

	assert.Nil(t, rows[1].GRNDate, "empty GRN date means not yet received")
	assert.Equal(t, 12.0, rows[1].POQuantity)
}

func TestReadFillRates_MissingColumn(t *testing.T) {
	csv := "PO Date,PO Code,SKU ID,SKU Name,City,Warehouse Name,PO Quantity,GRN Quantity\n"

	_, err := ReadFillRates(strings.NewReader(csv))
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, TableFillRate, missing.Table)
	assert.Equal(t, "GRN Date", missing.Column)
}

func TestReadSales_RaggedRows(t *testing.T) {
	csv := strings.Join([]string{
		"Date,SKU Number,SKU Name,City,Sales (Qty) - Units",
		"10/3/2024,S1,Cola",
	}, "\n")

	rows, err := ReadSales(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].City, "short rows read missing cells as empty")
	assert.Equal(t, 0.0, rows[0].SalesUnits)
}
