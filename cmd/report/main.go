// cmd/report/main.go
//
// Batch CLI for the reconciliation pipelines: point it at the four source
// CSVs and it writes the DOI or PO status view, optionally persisting the
// snapshot to Postgres.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/stockpulse/doi-backend/internal/domain"
	"github.com/stockpulse/doi-backend/internal/ingest"
	"github.com/stockpulse/doi-backend/internal/reconcile"
	"github.com/stockpulse/doi-backend/internal/repository/postgres"
	"github.com/stockpulse/doi-backend/internal/service"
)

const windowDateLayout = "2006-01-02"

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sales", Usage: "Path to the sales CSV", Required: true},
		&cli.StringFlag{Name: "inventory", Usage: "Path to the inventory CSV", Required: true},
		&cli.StringFlag{Name: "po", Usage: "Path to the purchase-order CSV", Required: true},
		&cli.StringFlag{Name: "fillrate", Usage: "Path to the fill-rate CSV", Required: true},
		&cli.StringFlag{Name: "out", Usage: "Output CSV path", Required: true},
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Optional Postgres connection string; when set, the snapshot is persisted",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{Name: "batch", Usage: "Batch label used for persisted snapshots", Value: "cli"},
	}
}

func loadBatch(c *cli.Context) (domain.SourceBatch, error) {
	var batch domain.SourceBatch
	var err error

	if batch.Sales, err = ingest.ReadSalesFile(c.String("sales")); err != nil {
		return batch, err
	}
	if batch.Inventory, err = ingest.ReadInventoryFile(c.String("inventory")); err != nil {
		return batch, err
	}
	if batch.Orders, err = ingest.ReadPurchaseOrdersFile(c.String("po")); err != nil {
		return batch, err
	}
	if batch.FillRates, err = ingest.ReadFillRatesFile(c.String("fillrate")); err != nil {
		return batch, err
	}

	return batch, nil
}

func openRepo(c *cli.Context) (*postgres.ReportRepository, func(), error) {
	url := c.String("db-url")
	if url == "" {
		return nil, func() {}, nil
	}
	db, err := postgres.Open(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return postgres.NewReportRepository(db), func() { db.Close() }, nil
}

func runDOI(c *cli.Context) error {
	batch, err := loadBatch(c)
	if err != nil {
		return err
	}

	sel, err := domain.ParseViewSelection(c.String("view"), c.String("sku"), c.String("city"))
	if err != nil {
		return err
	}

	rows, err := reconcile.DOIReport(batch, c.Int("days"), sel)
	if err != nil {
		return err
	}

	if err := service.WriteDOIViewCSV(c.String("out"), rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	repo, closeRepo, err := openRepo(c)
	if err != nil {
		return err
	}
	defer closeRepo()
	if repo != nil {
		if err := repo.SaveDOISnapshot(c.Context, c.String("batch"), c.Int("days"), string(sel.Kind), rows); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}

	fmt.Printf("wrote %d rows to %s\n", len(rows), c.String("out"))
	return nil
}

func runPOStatus(c *cli.Context) error {
	batch, err := loadBatch(c)
	if err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -7)
	to := today
	if raw := c.String("from"); raw != "" {
		if from, err = time.Parse(windowDateLayout, raw); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if raw := c.String("to"); raw != "" {
		if to, err = time.Parse(windowDateLayout, raw); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}

	product := c.String("product")
	rows, err := reconcile.POStatusReport(batch, product, from, to)
	if err != nil {
		return err
	}

	if err := service.WritePOStatusCSV(c.String("out"), rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	repo, closeRepo, err := openRepo(c)
	if err != nil {
		return err
	}
	defer closeRepo()
	if repo != nil {
		if err := repo.SavePOStatusSnapshot(c.Context, c.String("batch"), product, from, to, rows); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}

	fmt.Printf("wrote %d rows to %s\n", len(rows), c.String("out"))
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "report",
		Usage: "Run the DOI and PO status reconciliation pipelines over CSV feeds",
		Commands: []*cli.Command{
			{
				Name:  "doi",
				Usage: "Compute the days-of-inventory view",
				Flags: append(inputFlags(),
					&cli.IntFlag{Name: "days", Usage: "Lookback window in days (1-60)", Value: 7},
					&cli.StringFlag{Name: "view", Usage: "View: product, city, sku or by_city", Value: "product"},
					&cli.StringFlag{Name: "sku", Usage: "SKU name for --view sku"},
					&cli.StringFlag{Name: "city", Usage: "City for --view by_city"},
				),
				Action: runDOI,
			},
			{
				Name:  "po-status",
				Usage: "Compute the PO status view for one product",
				Flags: append(inputFlags(),
					&cli.StringFlag{Name: "product", Usage: "SKU name to report on", Required: true},
					&cli.StringFlag{Name: "from", Usage: "GRN window start (YYYY-MM-DD), default a week ago"},
					&cli.StringFlag{Name: "to", Usage: "GRN window end (YYYY-MM-DD), default today"},
				),
				Action: runPOStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
