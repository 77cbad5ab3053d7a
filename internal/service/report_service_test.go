package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/doi-backend/internal/config"
	"github.com/stockpulse/doi-backend/internal/domain"
)

func newTestService(t *testing.T) *ReportService {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{
			UploadDir: t.TempDir(),
			DataDir:   t.TempDir(),
		},
	}
	return NewReportService(cfg, nil, nil)
}

func writeBatchFiles(t *testing.T, svc *ReportService, batchID string) {
	t.Helper()
	dir := filepath.Join(svc.uploadDir, batchID)

	feeds := map[string]string{
		SalesFile: "Date,SKU Number,SKU Name,City,Sales (Qty) - Units\n" +
			"10/3/2024,S1,Cola,Delhi,70\n" +
			"9/3/2024,S1,Cola,Delhi,70\n",
		InventoryFile: "City,SKU Name,SKU Code,Units\n" +
			"Delhi,Cola,S1,400\n",
		POFile: "PO No.,PO Date,Status,Del Location,SKU,SKU Desc,Qty,GRN Quantity\n" +
			"PO-1,2 Mar 2024 10:30 AM,PENDING_GRN,WH-D,S1,Cola,10,0\n",
		FillRateFile: "PO Date,PO Code,GRN Date,SKU ID,SKU Name,City,Warehouse Name,PO Quantity,GRN Quantity\n" +
			"20-2-2024,PO-0,10-3-2024,S1,Cola,Delhi,WH-D,30,28\n",
	}
	for name, content := range feeds {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestCreateAndLoadBatch(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.CreateBatch()
	require.NoError(t, err)
	writeBatchFiles(t, svc, id)

	batch, err := svc.LoadBatch(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, batch.Sales, 2)
	assert.Len(t, batch.Inventory, 1)
	assert.Len(t, batch.Orders, 1)
	assert.Len(t, batch.FillRates, 1)
}

func TestBatchDir_RejectsTraversal(t *testing.T) {
	svc := newTestService(t)

	for _, id := range []string{"", "../other", "a/b", `a\b`, ".."} {
		_, err := svc.BatchDir(id)
		assert.ErrorIs(t, err, ErrBatchNotFound, "id %q", id)
	}
}

func TestBatchDir_UnknownBatch(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.BatchDir("20240310120000-deadbeef")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestLoadBatch_MissingFeedFailsWholeBatch(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.CreateBatch()
	require.NoError(t, err)
	writeBatchFiles(t, svc, id)
	require.NoError(t, os.Remove(filepath.Join(svc.uploadDir, id, FillRateFile)))

	_, err = svc.LoadBatch(context.Background(), id)
	assert.Error(t, err)
}

func TestDOIView(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.CreateBatch()
	require.NoError(t, err)
	writeBatchFiles(t, svc, id)

	rows, err := svc.DOIView(context.Background(), id, 7, domain.SelectProductWise())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cola", rows[0].SKUName)
	assert.Equal(t, 140.0, rows[0].SalesUnits)
	assert.Equal(t, 20.0, rows[0].DOI, "400 / (140/7)")
}

func TestPOStatusView(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.CreateBatch()
	require.NoError(t, err)
	writeBatchFiles(t, svc, id)

	rows, err := svc.POStatusView(context.Background(), id, "Cola",
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 30.0, rows[0].POQuantity)
	assert.Equal(t, 10.0, rows[0].OpenPOQuantity)
}

func TestFilterOptions(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.CreateBatch()
	require.NoError(t, err)
	writeBatchFiles(t, svc, id)

	opts, err := svc.FilterOptions(context.Background(), id, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cola"}, opts.SKUs)
	assert.Equal(t, []string{"Delhi"}, opts.Cities)
}

// recordingCache records which batches were invalidated.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, batchID string, params []string, out interface{}) (bool, error) {
	return false, nil
}

func (c *recordingCache) Set(ctx context.Context, batchID string, params []string, payload interface{}) error {
	return nil
}

func (c *recordingCache) InvalidateBatch(ctx context.Context, batchID string) error {
	c.invalidated = append(c.invalidated, batchID)
	return nil
}

func TestInvalidateBatch_DropsCachedViews(t *testing.T) {
	rec := &recordingCache{}
	cfg := &config.Config{
		App: config.AppConfig{UploadDir: t.TempDir(), DataDir: t.TempDir()},
	}
	svc := NewReportService(cfg, rec, nil)

	require.NoError(t, svc.InvalidateBatch(context.Background(), "batch-1"))
	assert.Equal(t, []string{"batch-1"}, rec.invalidated)
}

func TestSnapshots_WithoutRepository(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.DOISnapshot(ctx, "batch-1", "product")
	assert.ErrorIs(t, err, ErrNoSnapshotStore)

	_, err = svc.POStatusSnapshot(ctx, "batch-1", "Cola")
	assert.ErrorIs(t, err, ErrNoSnapshotStore)
}

func TestPersist_WithoutRepositoryIsNoop(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rows := []domain.ReconciledRow{{SKUName: "Cola", City: "Delhi", DOI: 20}}
	assert.NoError(t, svc.PersistDOIView(ctx, "batch-1", 7, domain.SelectProductWise(), rows))

	po := []domain.POStatusRow{{SKUName: "Cola", City: "Delhi", POQuantity: 30}}
	now := time.Now().UTC()
	assert.NoError(t, svc.PersistPOStatusView(ctx, "batch-1", "Cola", now.AddDate(0, 0, -7), now, po))
}

func TestExportDOIViewCSV(t *testing.T) {
	svc := newTestService(t)

	rows := []domain.ReconciledRow{
		{SKUName: "Cola", City: "Delhi", SalesUnits: 140, InventoryUnits: 400, DOI: 20},
	}
	path, err := svc.ExportDOIViewCSV("demo", rows)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"SKU Name,City,Sales Units,Inventory Units,DOI\nCola,Delhi,140,400,20\n",
		string(data))
}
