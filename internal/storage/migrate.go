// ABOUTME: Data migration between cohort storage backends.
// ABOUTME: Copies every table from a source store into an empty destination.

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated rows per table.
type MigrateSummary struct {
	Glucose  int
	WearTime int
	Activity int
	Files    int
	Diet     int
	Trace    int
}

// Total is the number of rows copied.
func (s *MigrateSummary) Total() int {
	return s.Glucose + s.WearTime + s.Activity + s.Files + s.Diet + s.Trace
}

// MigrateData copies all data from src to dst storage. The destination
// should be empty before calling this function.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	counts, err := dst.TableCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count destination rows: %w", err)
	}
	for _, table := range Tables {
		if counts[table] > 0 {
			return nil, fmt.Errorf("destination table %s is not empty (%d rows)", table, counts[table])
		}
	}

	data, err := src.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if err := dst.ImportData(ctx, data); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		Glucose:  len(data.Glucose),
		WearTime: len(data.WearTime),
		Activity: len(data.Activity),
		Files:    len(data.Files),
		Diet:     len(data.Diet),
		Trace:    len(data.Trace),
	}, nil
}

// IsFileNonEmpty checks whether a file exists and has content.
// Returns false if the file does not exist.
func IsFileNonEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	return info.Size() > 0, nil
}
