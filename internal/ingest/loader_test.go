// ABOUTME: Tests for the pooled batch loader against a real SQLite store.
// ABOUTME: Verifies all-or-nothing commits and directory expansion.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/storage"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0600))
	return p
}

func openStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "workwell.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadCGMDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p01_baseline.csv", cgmExport)
	writeFile(t, dir, "p02_baseline.csv", cgmExport)
	writeFile(t, dir, "notes.txt", "ignored")

	db := openStore(t)
	loader := NewLoader(db, 2, zap.NewNop())

	summary, err := loader.Load(context.Background(), KindCGM, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, "cgm", summary.Kind)
	assert.NotEmpty(t, summary.ID)

	pids, err := db.Participants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p01", "p02"}, pids)
}

func TestLoadAbortsOnParseError(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "p01_baseline.csv", cgmExport)
	bad := writeFile(t, dir, "p02_baseline.csv", "a\nb\nDevice Timestamp,Historic Glucose mg/dL\n01-03-2024 08:00,high\n")

	db := openStore(t)
	_, err := NewLoader(db, 0, nil).Load(context.Background(), KindCGM, []string{good, bad})
	require.Error(t, err)

	counts, err := db.TableCounts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts["cgm_data"])
}

func TestLoadNoFiles(t *testing.T) {
	db := openStore(t)
	_, err := NewLoader(db, 1, nil).Load(context.Background(), KindWear, []string{t.TempDir()})
	assert.Error(t, err)
}

func TestExpandPathsDedupesAndSorts(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.csv", "x")
	a := writeFile(t, dir, "a.CSV", "x")
	writeFile(t, dir, "c.json", "x")

	got, err := ExpandPaths([]string{b, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)

	_, err = ExpandPaths([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
