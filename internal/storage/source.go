// ABOUTME: Typed row fetches backing the aggregation engine.
// ABOUTME: PID and calendar-date bounds are pushed down into SQL where possible.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/workwell/internal/aggregate"
	"github.com/harperreed/workwell/internal/models"
)

// where builds a WHERE clause for f. dateCol may be empty for tables whose
// date cannot be compared as text.
func where(f aggregate.Filter, dateCol string) (string, []any) {
	var conds []string
	var args []any
	if len(f.PIDs) > 0 {
		marks := make([]string, len(f.PIDs))
		for i, p := range f.PIDs {
			marks[i] = "?"
			args = append(args, p)
		}
		conds = append(conds, "pid IN ("+strings.Join(marks, ", ")+")")
	}
	if dateCol != "" && f.From != "" {
		conds = append(conds, "SUBSTR("+dateCol+", 1, 10) >= ?")
		args = append(args, f.From)
	}
	if dateCol != "" && f.To != "" {
		conds = append(conds, "SUBSTR("+dateCol+", 1, 10) <= ?")
		args = append(args, f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (d *DB) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.rebind(q), args...)
}

// Participants returns every pid present in any table, sorted.
func (d *DB) Participants(ctx context.Context) ([]string, error) {
	rows, err := d.query(ctx, `
		SELECT pid FROM wear_time
		UNION SELECT pid FROM cgm_data
		UNION SELECT pid FROM file_summary
		UNION SELECT pid FROM day_summary
		ORDER BY pid
	`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var pids []string
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		pids = append(pids, pid)
	}
	return pids, rows.Err()
}

// GlucoseReadings returns CGM rows. Device timestamps are not sortable text,
// so date bounds are left to the caller.
func (d *DB) GlucoseReadings(ctx context.Context, f aggregate.Filter) ([]models.GlucoseReading, error) {
	cond, args := where(f, "")
	rows, err := d.query(ctx, `
		SELECT pid, COALESCE(timepoint, ''), COALESCE(device, ''), COALESCE(serial_number, ''),
			device_timestamp, COALESCE(record_type, 0), historic_glucose_mg_dl
		FROM cgm_data`+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("list glucose readings: %w", err)
	}
	defer rows.Close()

	var out []models.GlucoseReading
	for rows.Next() {
		var r models.GlucoseReading
		if err := rows.Scan(&r.PID, &r.Timepoint, &r.Device, &r.SerialNumber,
			&r.DeviceTimestamp, &r.RecordType, &r.GlucoseMgDL); err != nil {
			return nil, fmt.Errorf("scan glucose reading: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WearTime returns daily wear rows ordered by pid and date.
func (d *DB) WearTime(ctx context.Context, f aggregate.Filter) ([]models.WearTimeRecord, error) {
	cond, args := where(f, "calendar_date")
	rows, err := d.query(ctx, `
		SELECT pid, calendar_date, COALESCE(day, ''), recorded_wear_time_hrs
		FROM wear_time`+cond+`
		ORDER BY pid, calendar_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("list wear time: %w", err)
	}
	defer rows.Close()

	var out []models.WearTimeRecord
	for rows.Next() {
		var r models.WearTimeRecord
		if err := rows.Scan(&r.PID, &r.Date, &r.Day, &r.RecordedHours); err != nil {
			return nil, fmt.Errorf("scan wear time: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActivitySummaries returns day summary rows ordered by pid and date.
func (d *DB) ActivitySummaries(ctx context.Context, f aggregate.Filter) ([]models.ActivitySummaryRow, error) {
	cond, args := where(f, "calendar_date")
	rows, err := d.query(ctx, `
		SELECT pid, calendar_date,
			COALESCE(dur_day_total_in_min, 0), COALESCE(dur_day_total_lig_min, 0),
			COALESCE(dur_day_total_mod_min, 0), COALESCE(dur_day_total_vig_min, 0),
			COALESCE(dur_spt_sleep_min, 0), COALESCE(dur_spt_min, 0),
			COALESCE(nonwear_perc_day_spt, 0),
			COALESCE(sleeponset_ts, ''), COALESCE(wakeup_ts, ''),
			COALESCE(sleep_efficiency_after_onset, 0)
		FROM day_summary`+cond+`
		ORDER BY pid, calendar_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("list day summaries: %w", err)
	}
	defer rows.Close()

	var out []models.ActivitySummaryRow
	for rows.Next() {
		var r models.ActivitySummaryRow
		if err := rows.Scan(&r.PID, &r.Date,
			&r.SedentaryMin, &r.LightMin, &r.ModerateMin, &r.VigorousMin,
			&r.SleepMin, &r.SptMin, &r.NonWearPct,
			&r.SleepOnset, &r.Wakeup, &r.SleepEfficiency); err != nil {
			return nil, fmt.Errorf("scan day summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FileMetadata returns device file rows in load order. Date bounds do not
// apply to files.
func (d *DB) FileMetadata(ctx context.Context, f aggregate.Filter) ([]models.FileMetadata, error) {
	cond, args := where(aggregate.Filter{PIDs: f.PIDs}, "")
	rows, err := d.query(ctx, `
		SELECT pid, COALESCE(file_name, ''), COALESCE(file_device_id, ''), file_size,
			COALESCE(file_start_time, ''), COALESCE(file_end_time, ''),
			COALESCE(wear_time_overall_days, 0), COALESCE(non_wear_time_overall_days, 0),
			good_calibration
		FROM file_summary`+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("list file metadata: %w", err)
	}
	defer rows.Close()

	var out []models.FileMetadata
	for rows.Next() {
		var r models.FileMetadata
		var calibrated int
		if err := rows.Scan(&r.PID, &r.FileName, &r.DeviceID, &r.FileSizeBytes,
			&r.StartTime, &r.EndTime, &r.WearDays, &r.NonWearDays, &calibrated); err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		r.GoodCalibration = calibrated != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// DietaryEntries returns food log rows ordered by meal time.
func (d *DB) DietaryEntries(ctx context.Context, f aggregate.Filter) ([]models.DietaryEntry, error) {
	cond, args := where(f, "date")
	rows, err := d.query(ctx, `
		SELECT pid, date, COALESCE(meal_timestamp, ''),
			COALESCE(total_carbs_g, 0), COALESCE(total_fat_g, 0), COALESCE(protein_g, 0),
			COALESCE(calories, 0), COALESCE(glycemic_load, 0), COALESCE(raw_data, '')
		FROM dietary_data`+cond+`
		ORDER BY pid, meal_timestamp`, args...)
	if err != nil {
		return nil, fmt.Errorf("list dietary entries: %w", err)
	}
	defer rows.Close()

	var out []models.DietaryEntry
	for rows.Next() {
		var r models.DietaryEntry
		if err := rows.Scan(&r.PID, &r.Date, &r.Timestamp,
			&r.CarbsG, &r.FatG, &r.ProteinG, &r.Calories, &r.GlycemicLoad, &r.Description); err != nil {
			return nil, fmt.Errorf("scan dietary entry: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActivityTrace returns one participant-day of minute-level activity.
func (d *DB) ActivityTrace(ctx context.Context, pid, date string) ([]models.ActivityTracePoint, error) {
	rows, err := d.query(ctx, `
		SELECT pid, ts, COALESCE(sedentary, 0), COALESCE(light, 0),
			COALESCE(moderate_vigorous, 0), COALESCE(sleep, 0)
		FROM minute_level_data
		WHERE pid = ? AND SUBSTR(ts, 1, 10) = ?
		ORDER BY ts`, pid, date)
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
