package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/doi-backend/internal/domain"
)

func sampleMerged() []domain.ReconciledRow {
	return []domain.ReconciledRow{
		{SKUID: "S1", SKUName: "Cola", City: "Delhi", SalesUnits: 100, InventoryUnits: 350},
		{SKUID: "S1", SKUName: "Cola", City: "Mumbai", SalesUnits: 60, InventoryUnits: 200},
		{SKUID: "S2", SKUName: "Chips", City: "Delhi", SalesUnits: 40, InventoryUnits: 90},
		{SKUID: "S3", SKUName: "", City: "Delhi", SalesUnits: 10, InventoryUnits: 5},
	}
}

func TestAggregate_ProductWise(t *testing.T) {
	got := Aggregate(sampleMerged(), domain.SelectProductWise())

	// Sorted by SKU name; the empty name is a valid group of its own.
	require.Len(t, got, 3)
	assert.Equal(t, domain.ReconciledRow{SKUName: "", SalesUnits: 10, InventoryUnits: 5}, got[0])
	assert.Equal(t, domain.ReconciledRow{SKUName: "Chips", SalesUnits: 40, InventoryUnits: 90}, got[1])
	assert.Equal(t, domain.ReconciledRow{SKUName: "Cola", SalesUnits: 160, InventoryUnits: 550}, got[2])
}

func TestAggregate_CityWise(t *testing.T) {
	got := Aggregate(sampleMerged(), domain.SelectCityWise())

	require.Len(t, got, 2)
	assert.Equal(t, domain.ReconciledRow{City: "Delhi", SalesUnits: 150, InventoryUnits: 445}, got[0])
	assert.Equal(t, domain.ReconciledRow{City: "Mumbai", SalesUnits: 60, InventoryUnits: 200}, got[1])
}

func TestAggregate_BySKU(t *testing.T) {
	got := Aggregate(sampleMerged(), domain.SelectSKU("Cola"))

	require.Len(t, got, 2)
	assert.Equal(t, domain.ReconciledRow{SKUName: "Cola", City: "Delhi", SalesUnits: 100, InventoryUnits: 350}, got[0])
	assert.Equal(t, domain.ReconciledRow{SKUName: "Cola", City: "Mumbai", SalesUnits: 60, InventoryUnits: 200}, got[1])
}

func TestAggregate_ByCity(t *testing.T) {
	got := Aggregate(sampleMerged(), domain.SelectCity("Delhi"))

	require.Len(t, got, 3)
	for _, row := range got {
		assert.Equal(t, "Delhi", row.City)
	}
}

func TestAggregate_NoneYieldsNothing(t *testing.T) {
	got := Aggregate(sampleMerged(), domain.SelectNone())
	assert.Empty(t, got)
}

func TestAggregate_NonNegativeSums(t *testing.T) {
	for _, sel := range []domain.ViewSelection{
		domain.SelectProductWise(),
		domain.SelectCityWise(),
		domain.SelectSKU("Cola"),
		domain.SelectCity("Delhi"),
	} {
		for _, row := range Aggregate(sampleMerged(), sel) {
			assert.GreaterOrEqual(t, row.SalesUnits, 0.0)
			assert.GreaterOrEqual(t, row.InventoryUnits, 0.0)
		}
	}
}
