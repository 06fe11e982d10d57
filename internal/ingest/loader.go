// ABOUTME: Batch loader that parses files on a bounded worker pool and commits
// ABOUTME: every parsed row in one storage transaction under a fresh batch id.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/storage"
)

// DefaultWorkers bounds concurrent file parsing when no size is configured.
const DefaultWorkers = 4

// Store is the write side the loader commits to.
type Store interface {
	InsertBatch(ctx context.Context, b *storage.Batch) (*storage.BatchSummary, error)
}

// Loader ingests files of one kind into a Store.
type Loader struct {
	store   Store
	workers int
	logger  *zap.Logger
}

// NewLoader creates a loader. workers <= 0 uses DefaultWorkers.
func NewLoader(store Store, workers int, logger *zap.Logger) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, workers: workers, logger: logger}
}

// Load parses every CSV under paths as kind and commits the rows as a
// single batch. Any parse failure aborts the batch before anything is written.
func (l *Loader) Load(ctx context.Context, kind Kind, paths []string) (*storage.BatchSummary, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s", strings.Join(paths, ", "))
	}

	batchID := uuid.NewString()
	log := l.logger.With(zap.String("batch_id", batchID), zap.String("kind", string(kind)))
	log.Info("ingest started", zap.Int("files", len(files)), zap.Int("workers", l.workers))

	results := xsync.NewMap[string, Rows]()
	pool := pond.NewPool(l.workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, path := range files {
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			rows, err := parseFile(kind, path)
			if err != nil {
				return err
			}
			results.Store(path, rows)
			log.Debug("parsed file", zap.String("file", filepath.Base(path)), zap.Int("rows", rows.Len()))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Error("ingest aborted", zap.Error(err))
		return nil, err
	}

	batch := &storage.Batch{ID: batchID, Kind: string(kind), Files: len(files)}
	// merge in path order so row order is reproducible
	for _, path := range files {
		rows, ok := results.Load(path)
		if !ok {
			continue
		}
		batch.Glucose = append(batch.Glucose, rows.Glucose...)
		batch.Wear = append(batch.Wear, rows.Wear...)
		batch.Activity = append(batch.Activity, rows.Activity...)
		batch.FileMeta = append(batch.FileMeta, rows.Files...)
		batch.Diet = append(batch.Diet, rows.Diet...)
		batch.Trace = append(batch.Trace, rows.Trace...)
	}

	summary, err := l.store.InsertBatch(ctx, batch)
	if err != nil {
		log.Error("ingest commit failed", zap.Error(err))
		return nil, fmt.Errorf("commit batch %s: %w", batchID, err)
	}
	log.Info("ingest committed", zap.Int("rows", summary.Rows))
	return summary, nil
}

func parseFile(kind Kind, path string) (Rows, error) {
	f, err := os.Open(path)
	if err != nil {
		return Rows{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(kind, path, f)
}

// ExpandPaths resolves files and directories to a sorted, deduplicated list
// of .csv files. Directories are read one level deep.
func ExpandPaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				continue
			}
			add(filepath.Join(p, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
