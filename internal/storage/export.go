// ABOUTME: Export and import of the full cohort store.
// ABOUTME: Supports JSON and YAML dumps; imports load as a single batch.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/workwell/internal/aggregate"
	"github.com/harperreed/workwell/internal/models"
)

// ExportVersion is the dump format version written by GetAllData.
const ExportVersion = "1.0"

// ExportData represents the full export format for cohort data.
type ExportData struct {
	Version    string                      `json:"version" yaml:"version"`
	ExportedAt time.Time                   `json:"exported_at" yaml:"exported_at"`
	Tool       string                      `json:"tool" yaml:"tool"`
	Glucose    []models.GlucoseReading     `json:"glucose" yaml:"glucose"`
	WearTime   []models.WearTimeRecord     `json:"wear_time" yaml:"wear_time"`
	Activity   []models.ActivitySummaryRow `json:"activity" yaml:"activity"`
	Files      []models.FileMetadata       `json:"files" yaml:"files"`
	Diet       []models.DietaryEntry       `json:"diet" yaml:"diet"`
	Trace      []models.ActivityTracePoint `json:"trace" yaml:"trace"`
}

// Rows counts every row in the dump.
func (e *ExportData) Rows() int {
	return len(e.Glucose) + len(e.WearTime) + len(e.Activity) + len(e.Files) + len(e.Diet) + len(e.Trace)
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	var all aggregate.Filter

	glucose, err := d.GlucoseReadings(ctx, all)
	if err != nil {
		return nil, err
	}
	wear, err := d.WearTime(ctx, all)
	if err != nil {
		return nil, err
	}
	activity, err := d.ActivitySummaries(ctx, all)
	if err != nil {
		return nil, err
	}
	files, err := d.FileMetadata(ctx, all)
	if err != nil {
		return nil, err
	}
	diet, err := d.DietaryEntries(ctx, all)
	if err != nil {
		return nil, err
	}
	trace, err := d.allTrace(ctx)
	if err != nil {
		return nil, err
	}

	return &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       "workwell",
		Glucose:    glucose,
		WearTime:   wear,
		Activity:   activity,
		Files:      files,
		Diet:       diet,
		Trace:      trace,
	}, nil
}

func (d *DB) allTrace(ctx context.Context) ([]models.ActivityTracePoint, error) {
	rows, err := d.query(ctx, `
		SELECT pid, ts, COALESCE(sedentary, 0), COALESCE(light, 0),
			COALESCE(moderate_vigorous, 0), COALESCE(sleep, 0)
		FROM minute_level_data
		ORDER BY pid, ts`)
	if err != nil {
		return nil, fmt.Errorf("list activity trace: %w", err)
	}
	defer rows.Close()

	var out []models.ActivityTracePoint
	for rows.Next() {
		var r models.ActivityTracePoint
		if err := rows.Scan(&r.PID, &r.Timestamp, &r.Sedentary, &r.Light,
			&r.ModerateVigorous, &r.Sleep); err != nil {
			return nil, fmt.Errorf("scan activity trace: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ImportData loads an export dump as one "import" batch.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	b := &Batch{
		ID:       uuid.NewString(),
		Kind:     "import",
		Files:    1,
		Glucose:  data.Glucose,
		Wear:     data.WearTime,
		Activity: data.Activity,
		FileMeta: data.Files,
		Diet:     data.Diet,
		Trace:    data.Trace,
	}
	if _, err := d.InsertBatch(ctx, b); err != nil {
		return fmt.Errorf("import data: %w", err)
	}
	return nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func (d *DB) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(ctx context.Context, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(ctx, &exportData)
}

// ImportYAML imports data from YAML bytes.
func (d *DB) ImportYAML(ctx context.Context, data []byte) error {
	var exportData ExportData
	if err := yaml.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal YAML: %w", err)
	}
	return d.ImportData(ctx, &exportData)
}
