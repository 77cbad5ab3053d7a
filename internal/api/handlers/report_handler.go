// internal/api/handlers/report_handler.go
package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/stockpulse/doi-backend/internal/domain"
	"github.com/stockpulse/doi-backend/internal/ingest"
	"github.com/stockpulse/doi-backend/internal/reconcile"
	"github.com/stockpulse/doi-backend/internal/service"
)

const windowDateLayout = "2006-01-02"

// feedFields maps multipart form-file field names to the canonical filenames
// inside a batch directory.
var feedFields = map[string]string{
	"sales":           service.SalesFile,
	"inventory":       service.InventoryFile,
	"purchase_orders": service.POFile,
	"fill_rate":       service.FillRateFile,
}

type ReportHandler struct {
	svc             *service.ReportService
	defaultLookback int
}

func NewReportHandler(svc *service.ReportService, defaultLookback int) *ReportHandler {
	if defaultLookback < reconcile.MinLookbackDays || defaultLookback > reconcile.MaxLookbackDays {
		defaultLookback = 7
	}
	return &ReportHandler{svc: svc, defaultLookback: defaultLookback}
}

// UploadBatch accepts the four source CSVs as one multipart upload and stores
// them as a new batch.
func (h *ReportHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	for field := range feedFields {
		if len(form.File[field]) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + field})
			return
		}
	}

	batchID, err := h.svc.CreateBatch()
	if err != nil {
		log.Error().Err(err).Msg("failed to create batch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create batch"})
		return
	}

	dir, err := h.svc.BatchDir(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve batch"})
		return
	}

	for field, filename := range feedFields {
		file := form.File[field][0]
		if err := c.SaveUploadedFile(file, filepath.Join(dir, filename)); err != nil {
			log.Error().Err(err).Str("field", field).Msg("failed to save uploaded file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save " + field})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"batch_id": batchID})
}

// GetDOIView runs the DOI pipeline for a stored batch.
// Query: days (1-60), view (none|product|city|sku|by_city), sku, city.
func (h *ReportHandler) GetDOIView(c *gin.Context) {
	batchID := c.Param("id")

	days, ok := h.lookbackDays(c)
	if !ok {
		return
	}

	sel, err := domain.ParseViewSelection(c.Query("view"), c.Query("sku"), c.Query("city"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.svc.DOIView(c.Request.Context(), batchID, days, sel)
	if err != nil {
		respondPipelineError(c, batchID, err)
		return
	}

	// Snapshot persistence is best effort; the computed view still serves.
	if err := h.svc.PersistDOIView(c.Request.Context(), batchID, days, sel, rows); err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("failed to persist doi snapshot")
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"days":     days,
		"view":     sel.Kind,
		"rows":     rows,
	})
}

// GetDOISnapshot returns the last persisted DOI view for a batch.
// Query: view (defaults to product).
func (h *ReportHandler) GetDOISnapshot(c *gin.Context) {
	batchID := c.Param("id")

	view := strings.TrimSpace(c.Query("view"))
	if view == "" {
		view = string(domain.ViewProductWise)
	}

	rows, err := h.svc.DOISnapshot(c.Request.Context(), batchID, view)
	if err != nil {
		respondPipelineError(c, batchID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"view":     view,
		"rows":     rows,
	})
}

// GetPOStatus runs the PO status pipeline for a stored batch.
// Query: product (required), from, to (YYYY-MM-DD, default trailing week).
func (h *ReportHandler) GetPOStatus(c *gin.Context) {
	batchID := c.Param("id")

	product := strings.TrimSpace(c.Query("product"))
	if product == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product is required"})
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, ok := h.windowDate(c, "from", today.AddDate(0, 0, -7))
	if !ok {
		return
	}
	to, ok := h.windowDate(c, "to", today)
	if !ok {
		return
	}

	rows, err := h.svc.POStatusView(c.Request.Context(), batchID, product, from, to)
	if err != nil {
		respondPipelineError(c, batchID, err)
		return
	}

	if err := h.svc.PersistPOStatusView(c.Request.Context(), batchID, product, from, to, rows); err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("failed to persist po status snapshot")
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"product":  product,
		"from":     from.Format(windowDateLayout),
		"to":       to.Format(windowDateLayout),
		"rows":     rows,
	})
}

// GetPOStatusSnapshot returns the last persisted PO status view for a
// batch/product. Query: product (required).
func (h *ReportHandler) GetPOStatusSnapshot(c *gin.Context) {
	batchID := c.Param("id")

	product := strings.TrimSpace(c.Query("product"))
	if product == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product is required"})
		return
	}

	rows, err := h.svc.POStatusSnapshot(c.Request.Context(), batchID, product)
	if err != nil {
		respondPipelineError(c, batchID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"product":  product,
		"rows":     rows,
	})
}

// ReplaceBatch overwrites the four feeds of an existing batch and drops its
// cached views.
func (h *ReportHandler) ReplaceBatch(c *gin.Context) {
	batchID := c.Param("id")

	dir, err := h.svc.BatchDir(batchID)
	if err != nil {
		respondPipelineError(c, batchID, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	for field := range feedFields {
		if len(form.File[field]) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + field})
			return
		}
	}

	for field, filename := range feedFields {
		file := form.File[field][0]
		if err := c.SaveUploadedFile(file, filepath.Join(dir, filename)); err != nil {
			log.Error().Err(err).Str("field", field).Msg("failed to save uploaded file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save " + field})
			return
		}
	}

	if err := h.svc.InvalidateBatch(c.Request.Context(), batchID); err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("failed to invalidate cached views")
	}

	c.JSON(http.StatusOK, gin.H{"batch_id": batchID})
}

// GetFilters lists the SKU names and cities available for view narrowing.
func (h *ReportHandler) GetFilters(c *gin.Context) {
	batchID := c.Param("id")

	days, ok := h.lookbackDays(c)
	if !ok {
		return
	}

	opts, err := h.svc.FilterOptions(c.Request.Context(), batchID, days)
	if err != nil {
		respondPipelineError(c, batchID, err)
		return
	}

	c.JSON(http.StatusOK, opts)
}

func (h *ReportHandler) lookbackDays(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return h.defaultLookback, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < reconcile.MinLookbackDays || days > reconcile.MaxLookbackDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer in [1, 60]"})
		return 0, false
	}
	return days, true
}

func (h *ReportHandler) windowDate(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse(windowDateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t.UTC(), true
}

func respondPipelineError(c *gin.Context, batchID string, err error) {
	var missing *ingest.MissingColumnError
	switch {
	case errors.As(err, &missing):
		// A malformed source file is the caller's problem, not ours.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": missing.Error()})
	case errors.Is(err, reconcile.ErrLookbackOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoSnapshotStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("batch", batchID).Msg("report pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
	}
}
