// Command member-ingest bulk-loads StarPoints card IDs from gzipped
// export files into the members table. Files are streamed concurrently; a
// bloom filter dedupes card IDs across files before they reach the database.
package main

import (
	"bufio"
	"context"
	"flag"
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

	"github.com/farmapos/pos-api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000

	// Card IDs are fixed-width digit strings printed on the physical cards.
	cardIDLen = 12
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing members-*.gz export files")
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
		slog.Error("member ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("member ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "members-*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no members-*.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := repository.NewMemberRepository(pool)

	// One filter shared across files: a card seen in any file is skipped in
	// all the others. A rare false positive only means one card is dropped
	// from the batch; it can be re-registered at the counter.
	var (
		mu   sync.Mutex
		seen = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	)
	var total, skipped int64

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ingestFile(ctx, f, repo, func(cardID string) bool {
			mu.Lock()
			defer mu.Unlock()
			if seen.TestString(cardID) {
				skipped++
				return false
			}
			seen.AddString(cardID)
			total++
			return true
		}))
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest summary", slog.Int64("inserted", total), slog.Int64("duplicates_skipped", skipped))
	return nil
}

// ingestFile streams one gzipped export and upserts each fresh card ID.
// claim reports whether the card has not been seen in any file yet.
func ingestFile(
	ctx context.Context,
	path string,
	repo *repository.MemberRepository,
	claim func(cardID string) bool,
) func() error {
	return func() error {
		slog.Info("ingesting file", slog.String("path", path))

		var count uint64
		err := streamGzLines(ctx, path, func(line string) error {
			cardID, name, ok := parseLine(line)
			if !ok {
				return nil
			}
			if !claim(cardID) {
				return nil
			}

			if err := repo.Upsert(ctx, cardID, name); err != nil {
				return errors.Wrapf(err, "upsert member %s", cardID)
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress", slog.String("path", path), slog.Uint64("members", count))
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}

		slog.Info("file complete", slog.String("path", path), slog.Uint64("members", count))
		return nil
	}
}

// parseLine splits an export line of the form "<card_id>,<name>". Lines with
// a malformed card ID are dropped.
func parseLine(line string) (cardID, name string, ok bool) {
	cardID, name, _ = strings.Cut(line, ",")
	cardID = strings.TrimSpace(cardID)
	name = strings.TrimSpace(name)

	if len(cardID) != cardIDLen {
		return "", "", false
	}
	for i := 0; i < len(cardID); i++ {
		if cardID[i] < '0' || cardID[i] > '9' {
			return "", "", false
		}
	}
	return cardID, name, true
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
