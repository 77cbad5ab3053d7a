// internal/service/report_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stockpulse/doi-backend/internal/cache"
	"github.com/stockpulse/doi-backend/internal/config"
	"github.com/stockpulse/doi-backend/internal/domain"
	"github.com/stockpulse/doi-backend/internal/ingest"
	"github.com/stockpulse/doi-backend/internal/reconcile"
	"github.com/stockpulse/doi-backend/internal/repository/postgres"
)

// Canonical filenames for the four feeds inside a batch directory.
const (
	SalesFile     = "sales.csv"
	InventoryFile = "inventory.csv"
	POFile        = "purchase_orders.csv"
	FillRateFile  = "fill_rate.csv"
)

var (
	// ErrBatchNotFound marks batch ids that do not resolve to a stored batch,
	// including ids rejected before touching the filesystem.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNoSnapshotStore is returned by snapshot reads when the service runs
	// without a database.
	ErrNoSnapshotStore = errors.New("snapshot store not configured")
)

// FilterOptions lists the distinct entities the UI can narrow a view to.
type FilterOptions struct {
	SKUs   []string `json:"skus"`
	Cities []string `json:"cities"`
}

// ReportService loads source batches and runs the reconciliation pipelines
// over them. The repository is optional; when nil, nothing is persisted.
type ReportService struct {
	uploadDir string
	dataDir   string
	cache     cache.ReportCache
	repo      *postgres.ReportRepository
}

func NewReportService(cfg *config.Config, cacheImpl cache.ReportCache, repo *postgres.ReportRepository) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{
		uploadDir: cfg.App.UploadDir,
		dataDir:   cfg.App.DataDir,
		cache:     cacheImpl,
		repo:      repo,
	}
}

// CreateBatch allocates a fresh batch directory and returns its id.
func (s *ReportService) CreateBatch() (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate batch id: %w", err)
	}
	id := time.Now().UTC().Format("20060102150405") + "-" + hex.EncodeToString(suffix)

	if err := os.MkdirAll(filepath.Join(s.uploadDir, id), 0755); err != nil {
		return "", fmt.Errorf("create batch dir: %w", err)
	}
	return id, nil
}

// BatchDir maps a batch id to its directory, rejecting ids that would escape
// the upload root.
func (s *ReportService) BatchDir(batchID string) (string, error) {
	if batchID == "" || batchID == "." || batchID == ".." ||
		strings.ContainsAny(batchID, `/\`) || batchID != filepath.Base(batchID) {
		return "", fmt.Errorf("invalid batch id %q: %w", batchID, ErrBatchNotFound)
	}
	dir := filepath.Join(s.uploadDir, batchID)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("batch %s: %w", batchID, ErrBatchNotFound)
	}
	return dir, nil
}

// InvalidateBatch drops cached views for a batch. Called after the batch's
// feeds are replaced, so stale rows are never served.
func (s *ReportService) InvalidateBatch(ctx context.Context, batchID string) error {
	return s.cache.InvalidateBatch(ctx, batchID)
}

// LoadBatch parses the four feeds of a batch concurrently. Any parse failure
// (including a missing required column) fails the whole batch.
func (s *ReportService) LoadBatch(ctx context.Context, batchID string) (domain.SourceBatch, error) {
	dir, err := s.BatchDir(batchID)
	if err != nil {
		return domain.SourceBatch{}, err
	}

	var batch domain.SourceBatch
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		batch.Sales, err = ingest.ReadSalesFile(filepath.Join(dir, SalesFile))
		return err
	})
	g.Go(func() error {
		var err error
		batch.Inventory, err = ingest.ReadInventoryFile(filepath.Join(dir, InventoryFile))
		return err
	})
	g.Go(func() error {
		var err error
		batch.Orders, err = ingest.ReadPurchaseOrdersFile(filepath.Join(dir, POFile))
		return err
	})
	g.Go(func() error {
		var err error
		batch.FillRates, err = ingest.ReadFillRatesFile(filepath.Join(dir, FillRateFile))
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.SourceBatch{}, err
	}
	return batch, nil
}

// DOIView computes the DOI summary for a batch under the given lookback and
// selection, with a read-through cache of the rendered rows.
func (s *ReportService) DOIView(ctx context.Context, batchID string, lookbackDays int, sel domain.ViewSelection) ([]domain.ReconciledRow, error) {
	params := []string{"doi", strconv.Itoa(lookbackDays), string(sel.Kind), sel.Entity}

	var cached []domain.ReconciledRow
	if ok, err := s.cache.Get(ctx, batchID, params, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("report: cache get failed")
	}

	batch, err := s.LoadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	rows, err := reconcile.DOIReport(batch, lookbackDays, sel)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, batchID, params, rows); err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("report: cache set failed")
	}

	return rows, nil
}

// POStatusView computes the per-product PO status view for a batch.
func (s *ReportService) POStatusView(ctx context.Context, batchID, product string, from, to time.Time) ([]domain.POStatusRow, error) {
	params := []string{"po", product, from.Format("2006-01-02"), to.Format("2006-01-02")}

	var cached []domain.POStatusRow
	if ok, err := s.cache.Get(ctx, batchID, params, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("report: cache get failed")
	}

	batch, err := s.LoadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	rows, err := reconcile.POStatusReport(batch, product, from, to)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, batchID, params, rows); err != nil {
		log.Warn().Err(err).Str("batch", batchID).Msg("report: cache set failed")
	}

	return rows, nil
}

// FilterOptions lists the distinct SKU names and cities of the merged DOI
// table, for UI dropdowns.
func (s *ReportService) FilterOptions(ctx context.Context, batchID string, lookbackDays int) (FilterOptions, error) {
	batch, err := s.LoadBatch(ctx, batchID)
	if err != nil {
		return FilterOptions{}, err
	}

	merged, err := reconcile.MergedDOITable(batch, lookbackDays)
	if err != nil {
		return FilterOptions{}, err
	}

	skuSet := make(map[string]bool)
	citySet := make(map[string]bool)
	for _, row := range merged {
		if row.SKUName != "" {
			skuSet[row.SKUName] = true
		}
		if row.City != "" {
			citySet[row.City] = true
		}
	}

	opts := FilterOptions{
		SKUs:   make([]string, 0, len(skuSet)),
		Cities: make([]string, 0, len(citySet)),
	}
	for sku := range skuSet {
		opts.SKUs = append(opts.SKUs, sku)
	}
	for city := range citySet {
		opts.Cities = append(opts.Cities, city)
	}
	sort.Strings(opts.SKUs)
	sort.Strings(opts.Cities)

	return opts, nil
}

// PersistDOIView stores a computed DOI view through the repository, when one
// is configured.
func (s *ReportService) PersistDOIView(ctx context.Context, batchID string, lookbackDays int, sel domain.ViewSelection, rows []domain.ReconciledRow) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.SaveDOISnapshot(ctx, batchID, lookbackDays, string(sel.Kind), rows)
}

// PersistPOStatusView stores a computed PO status view through the repository,
// when one is configured.
func (s *ReportService) PersistPOStatusView(ctx context.Context, batchID, product string, from, to time.Time, rows []domain.POStatusRow) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.SavePOStatusSnapshot(ctx, batchID, product, from, to, rows)
}

// DOISnapshot reads back the stored DOI view for a batch.
func (s *ReportService) DOISnapshot(ctx context.Context, batchID, view string) ([]domain.ReconciledRow, error) {
	if s.repo == nil {
		return nil, ErrNoSnapshotStore
	}
	return s.repo.GetDOISnapshot(ctx, batchID, view)
}

// POStatusSnapshot reads back the stored PO status view for a batch/product.
func (s *ReportService) POStatusSnapshot(ctx context.Context, batchID, product string) ([]domain.POStatusRow, error) {
	if s.repo == nil {
		return nil, ErrNoSnapshotStore
	}
	return s.repo.GetPOStatusSnapshot(ctx, batchID, product)
}

// ExportDOIViewCSV writes a DOI view under the data dir and returns the path.
func (s *ReportService) ExportDOIViewCSV(name string, rows []domain.ReconciledRow) (string, error) {
	path := filepath.Join(s.dataDir, fmt.Sprintf("doi_%s.csv", name))
	if err := WriteDOIViewCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// ExportPOStatusCSV writes a PO status view under the data dir and returns the
// path.
func (s *ReportService) ExportPOStatusCSV(name string, rows []domain.POStatusRow) (string, error) {
	path := filepath.Join(s.dataDir, fmt.Sprintf("po_status_%s.csv", name))
	if err := WritePOStatusCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDOIViewCSV writes the DOI view table with the report column headings.
func WriteDOIViewCSV(path string, rows []domain.ReconciledRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"SKU Name", "City", "Sales Units", "Inventory Units", "DOI"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.SKUName,
			row.City,
			formatUnits(row.SalesUnits),
			formatUnits(row.InventoryUnits),
			formatUnits(row.DOI),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// WritePOStatusCSV writes the PO status view table with the report column
// headings.
func WritePOStatusCSV(path string, rows []domain.POStatusRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"SKU Name", "City", "PO Quantity", "GRN Quantity", "Open PO Quantity"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.SKUName,
			row.City,
			formatUnits(row.POQuantity),
			formatUnits(row.GRNQuantity),
			formatUnits(row.OpenPOQuantity),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func formatUnits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
