// Command catalog-ingest bulk-loads catalog items from gzipped CSV supplier
// price lists into the items table.
//
// Each input file is a headerless CSV with lines of the form
//
//	item name,category,supplier,unit
//
// Files are scanned concurrently. A bloom filter tracks names already
// queued so duplicates across files are skipped cheaply; the UNIQUE
// constraint on items.item_name catches the filter's rare false negatives.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/kalipos/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

const upsertItemSQL = `INSERT INTO items (item_name, category, default_supplier, unit)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (item_name) DO UPDATE
	SET category = EXCLUDED.category,
	    default_supplier = EXCLUDED.default_supplier,
	    unit = EXCLUDED.unit`

type itemRow struct {
	name     string
	category string
	supplier string
	unit     string
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz price lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.csv.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	written, skipped, err := ingest(ctx, files, func(ctx context.Context, row itemRow) error {
		_, err := pool.Exec(ctx, upsertItemSQL, row.name, row.category, row.supplier, row.unit)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("ingest summary", slog.Int64("written", written), slog.Int64("skipped", skipped), slog.Int("files", len(files)))
	return nil
}

// ingest fans file scanners into a single writer goroutine that owns the
// bloom filter. Scanners and writer run in one errgroup so the first error
// cancels the group context; scanners blocked on a full channel drain out
// through their ctx.Done case instead of hanging.
func ingest(ctx context.Context, files []string, upsert func(context.Context, itemRow) error) (written, skipped int64, err error) {
	rows := make(chan itemRow, 1024)
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	g, gctx := errgroup.WithContext(ctx)

	var scanners sync.WaitGroup
	for _, file := range files {
		scanners.Add(1)
		g.Go(func() error {
			defer scanners.Done()
			return scanFile(gctx, file, rows)
		})
	}
	go func() {
		scanners.Wait()
		close(rows)
	}()

	g.Go(func() error {
		for row := range rows {
			if seen.TestAndAddString(row.name) {
				skipped++
				continue
			}
			if err := upsert(gctx, row); err != nil {
				return errors.Wrapf(err, "upsert item %q", row.name)
			}
			written++
			if written%progressEvery == 0 {
				slog.Info("progress", slog.Int64("written", written), slog.Int64("skipped", skipped))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return written, skipped, err
	}
	return written, skipped, nil
}

// scanFile streams one gzipped CSV into the rows channel.
func scanFile(ctx context.Context, path string, rows chan<- itemRow) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return errors.Wrapf(err, "gzip reader %s", path)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = -1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if len(record) == 0 {
			continue
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		row := itemRow{name: name}
		if len(record) > 1 {
			row.category = strings.TrimSpace(record[1])
		}
		if len(record) > 2 {
			row.supplier = strings.TrimSpace(record[2])
		}
		if len(record) > 3 {
			row.unit = strings.TrimSpace(record[3])
		}

		select {
		case rows <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
