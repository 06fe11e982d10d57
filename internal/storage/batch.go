// ABOUTME: Batch loading of ingested rows in a single transaction.
// ABOUTME: Every row carries the batch id so a load can be traced back.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/workwell/internal/models"
)

// Batch is one ingest run's parsed rows, committed together.
type Batch struct {
	ID       string
	Kind     string
	Files    int
	Glucose  []models.GlucoseReading
	Wear     []models.WearTimeRecord
	Activity []models.ActivitySummaryRow
	FileMeta []models.FileMetadata
	Diet     []models.DietaryEntry
	Trace    []models.ActivityTracePoint
}

// Rows counts every row in the batch.
func (b *Batch) Rows() int {
	return len(b.Glucose) + len(b.Wear) + len(b.Activity) + len(b.FileMeta) + len(b.Diet) + len(b.Trace)
}

// BatchSummary is the persisted record of a committed batch.
type BatchSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Kind      string    `json:"kind" yaml:"kind"`
	Files     int       `json:"files" yaml:"files"`
	Rows      int       `json:"rows" yaml:"rows"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// InsertBatch writes all rows of b and its batch record in one transaction.
func (d *DB) InsertBatch(ctx context.Context, b *Batch) (*BatchSummary, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := d.insertGlucose(ctx, tx, b.ID, b.Glucose); err != nil {
		return nil, err
	}
	if err := d.insertWear(ctx, tx, b.ID, b.Wear); err != nil {
		return nil, err
	}
	if err := d.insertActivity(ctx, tx, b.ID, b.Activity); err != nil {
		return nil, err
	}
	if err := d.insertFiles(ctx, tx, b.ID, b.FileMeta); err != nil {
		return nil, err
	}
	if err := d.insertDiet(ctx, tx, b.ID, b.Diet); err != nil {
		return nil, err
	}
	if err := d.insertTrace(ctx, tx, b.ID, b.Trace); err != nil {
		return nil, err
	}

	summary := &BatchSummary{
		ID:        b.ID,
		Kind:      b.Kind,
		Files:     b.Files,
		Rows:      b.Rows(),
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx, d.rebind(`
		INSERT INTO ingest_batches (id, kind, files, rows_loaded, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		summary.ID, summary.Kind, summary.Files, summary.Rows, summary.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("record batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return summary, nil
}

// each prepares stmt once and executes it for n rows.
func (d *DB) each(ctx context.Context, tx *sql.Tx, table, stmt string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	ps, err := tx.PrepareContext(ctx, d.rebind(stmt))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer ps.Close()
	for i := 0; i < n; i++ {
		if _, err := ps.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}
	return nil
}

func (d *DB) insertGlucose(ctx context.Context, tx *sql.Tx, batchID string, rows []models.GlucoseReading) error {
	return d.each(ctx, tx, "cgm_data", `
		INSERT INTO cgm_data (pid, timepoint, device, serial_number, device_timestamp,
			record_type, historic_glucose_mg_dl, batch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PID, r.Timepoint, r.Device, r.SerialNumber, r.DeviceTimestamp,
			r.RecordType, r.GlucoseMgDL, batchID}
	})
}

func (d *DB) insertWear(ctx context.Context, tx *sql.Tx, batchID string, rows []models.WearTimeRecord) error {
	return d.each(ctx, tx, "wear_time", `
		INSERT INTO wear_time (pid, calendar_date, day, recorded_wear_time_hrs, batch_id)
		VALUES (?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PID, r.Date, r.Day, r.RecordedHours, batchID}
	})
}

func (d *DB) insertActivity(ctx context.Context, tx *sql.Tx, batchID string, rows []models.ActivitySummaryRow) error {
	return d.each(ctx, tx, "day_summary", `
		INSERT INTO day_summary (pid, calendar_date, dur_day_total_in_min, dur_day_total_lig_min,
			dur_day_total_mod_min, dur_day_total_vig_min, dur_spt_sleep_min, dur_spt_min,
			nonwear_perc_day_spt, sleeponset_ts, wakeup_ts, sleep_efficiency_after_onset, batch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PID, r.Date, r.SedentaryMin, r.LightMin, r.ModerateMin, r.VigorousMin,
			r.SleepMin, r.SptMin, r.NonWearPct, r.SleepOnset, r.Wakeup, r.SleepEfficiency, batchID}
	})
}

func (d *DB) insertFiles(ctx context.Context, tx *sql.Tx, batchID string, rows []models.FileMetadata) error {
	return d.each(ctx, tx, "file_summary", `
		INSERT INTO file_summary (pid, file_name, file_device_id, file_size, file_start_time,
			file_end_time, wear_time_overall_days, non_wear_time_overall_days, good_calibration, batch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		calibrated := 0
		if r.GoodCalibration {
			calibrated = 1
		}
		return []any{r.PID, r.FileName, r.DeviceID, r.FileSizeBytes, r.StartTime, r.EndTime,
			r.WearDays, r.NonWearDays, calibrated, batchID}
	})
}

func (d *DB) insertDiet(ctx context.Context, tx *sql.Tx, batchID string, rows []models.DietaryEntry) error {
	return d.each(ctx, tx, "dietary_data", `
		INSERT INTO dietary_data (pid, date, meal_timestamp, total_carbs_g, total_fat_g,
			protein_g, calories, glycemic_load, raw_data, batch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PID, r.Date, r.Timestamp, r.CarbsG, r.FatG, r.ProteinG,
			r.Calories, r.GlycemicLoad, r.Description, batchID}
	})
}

func (d *DB) insertTrace(ctx context.Context, tx *sql.Tx, batchID string, rows []models.ActivityTracePoint) error {
	return d.each(ctx, tx, "minute_level_data", `
		INSERT INTO minute_level_data (pid, ts, sedentary, light, moderate_vigorous, sleep, batch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PID, r.Timestamp, r.Sedentary, r.Light, r.ModerateVigorous, r.Sleep, batchID}
	})
}

// ListBatches returns committed batches, newest first.
func (d *DB) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	rows, err := d.query(ctx, `
		SELECT id, kind, files, rows_loaded, created_at
		FROM ingest_batches
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []BatchSummary
	for rows.Next() {
		var s BatchSummary
		var created string
		if err := rows.Scan(&s.ID, &s.Kind, &s.Files, &s.Rows, &created); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Tables lists the data tables in load order.
var Tables = []string{"cgm_data", "wear_time", "day_summary", "file_summary", "dietary_data", "minute_level_data"}

// TableCounts returns the row count of every data table.
func (d *DB) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, t := range Tables {
		var n int
		if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}
