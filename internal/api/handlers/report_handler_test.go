package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/doi-backend/internal/config"
	"github.com/stockpulse/doi-backend/internal/service"
)

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

func newTestRouter(t *testing.T, cacheImpl *recordingCache) (*gin.Engine, *service.ReportService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{UploadDir: t.TempDir(), DataDir: t.TempDir()},
	}
	svc := service.NewReportService(cfg, cacheImpl, nil)
	h := NewReportHandler(svc, 7)

	router := gin.New()
	batches := router.Group("/api/v1/batches")
	batches.PUT("/:id", h.ReplaceBatch)
	batches.GET("/:id/doi", h.GetDOIView)
	batches.GET("/:id/snapshots/doi", h.GetDOISnapshot)
	batches.GET("/:id/snapshots/po-status", h.GetPOStatusSnapshot)

	return router, svc
}

func batchForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	feeds := map[string]string{
		"sales":           "Date,SKU Number,SKU Name,City,Sales (Qty) - Units\n10/3/2024,S1,Cola,Delhi,70\n",
		"inventory":       "City,SKU Name,SKU Code,Units\nDelhi,Cola,S1,400\n",
		"purchase_orders": "PO No.,PO Date,Status,Del Location,SKU,SKU Desc,Qty,GRN Quantity\n",
		"fill_rate":       "PO Date,PO Code,GRN Date,SKU ID,SKU Name,City,Warehouse Name,PO Quantity,GRN Quantity\n",
	}
	for field, content := range feeds {
		part, err := writer.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestGetDOIView_UnknownBatchIs404(t *testing.T) {
	router, _ := newTestRouter(t, &recordingCache{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/20240310120000-deadbeef/doi?view=product", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDOISnapshot_WithoutStoreIs503(t *testing.T) {
	router, svc := newTestRouter(t, &recordingCache{})

	id, err := svc.CreateBatch()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+id+"/snapshots/doi", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetPOStatusSnapshot_RequiresProduct(t *testing.T) {
	router, svc := newTestRouter(t, &recordingCache{})

	id, err := svc.CreateBatch()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+id+"/snapshots/po-status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceBatch_InvalidatesCachedViews(t *testing.T) {
	rec := &recordingCache{}
	router, svc := newTestRouter(t, rec)

	id, err := svc.CreateBatch()
	require.NoError(t, err)

	body, contentType := batchForm(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/batches/"+id, body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{id}, rec.invalidated)

	dir, err := svc.BatchDir(id)
	require.NoError(t, err)
	for _, name := range []string{service.SalesFile, service.InventoryFile, service.POFile, service.FillRateFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "feed %s", name)
	}
}

func TestReplaceBatch_UnknownBatchIs404(t *testing.T) {
	router, _ := newTestRouter(t, &recordingCache{})

	body, contentType := batchForm(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/batches/20240310120000-deadbeef", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
