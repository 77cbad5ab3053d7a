package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stockpulse/doi-backend/internal/domain"
)

// ReportRepository persists computed report snapshots. The reconciliation core
// never touches this; persistence is an outer-layer convenience so dashboards
// can replay a batch without re-uploading the feeds.
type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveDOISnapshot replaces the stored DOI view for a batch. Delete-then-insert
// inside one transaction keeps re-runs idempotent.
func (r *ReportRepository) SaveDOISnapshot(ctx context.Context, batchID string, lookbackDays int, view string, rows []domain.ReconciledRow) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM doi_snapshots WHERE batch_id = $1 AND view = $2`, batchID, view); err != nil {
			return fmt.Errorf("clear doi snapshot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO doi_snapshots
				(batch_id, view, lookback_days, sku_name, city, sales_units, inventory_units, doi, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
		if err != nil {
			return fmt.Errorf("prepare doi snapshot insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, batchID, view, lookbackDays,
				row.SKUName, row.City, row.SalesUnits, row.InventoryUnits, row.DOI, now); err != nil {
				return fmt.Errorf("insert doi snapshot row: %w", err)
			}
		}

		return nil
	})
}

// SavePOStatusSnapshot replaces the stored PO status view for a batch/product.
func (r *ReportRepository) SavePOStatusSnapshot(ctx context.Context, batchID, product string, from, to time.Time, rows []domain.POStatusRow) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM po_status_snapshots WHERE batch_id = $1 AND sku_name = $2`, batchID, product); err != nil {
			return fmt.Errorf("clear po status snapshot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO po_status_snapshots
				(batch_id, sku_name, city, window_from, window_to, po_quantity, grn_quantity, open_po_quantity, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
		if err != nil {
			return fmt.Errorf("prepare po status insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, batchID, row.SKUName, row.City,
				from, to, row.POQuantity, row.GRNQuantity, row.OpenPOQuantity, now); err != nil {
				return fmt.Errorf("insert po status row: %w", err)
			}
		}

		return nil
	})
}

// GetDOISnapshot returns the stored DOI view for a batch, most recent first.
func (r *ReportRepository) GetDOISnapshot(ctx context.Context, batchID, view string) ([]domain.ReconciledRow, error) {
	var rows []domain.ReconciledRow
	query := `
		SELECT sku_name, city, sales_units, inventory_units, doi
		FROM doi_snapshots
		WHERE batch_id = $1 AND view = $2
		ORDER BY sku_name, city`
	if err := r.db.SelectContext(ctx, &rows, query, batchID, view); err != nil {
		return nil, fmt.Errorf("select doi snapshot: %w", err)
	}
	return rows, nil
}

// GetPOStatusSnapshot returns the stored PO status view for a batch/product.
func (r *ReportRepository) GetPOStatusSnapshot(ctx context.Context, batchID, product string) ([]domain.POStatusRow, error) {
	var rows []domain.POStatusRow
	query := `
		SELECT sku_name, city, po_quantity, grn_quantity, open_po_quantity
		FROM po_status_snapshots
		WHERE batch_id = $1 AND sku_name = $2
		ORDER BY sku_name, city`
	if err := r.db.SelectContext(ctx, &rows, query, batchID, product); err != nil {
		return nil, fmt.Errorf("select po status snapshot: %w", err)
	}
	return rows, nil
}
