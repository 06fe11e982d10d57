// ABOUTME: Per-format CSV parsers turning device and study exports into models.
// ABOUTME: Each parser is pure: a file name and reader in, typed rows out.
package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harperreed/workwell/internal/models"
)

// Kind names an ingestible file format.
type Kind string

const (
	KindCGM   Kind = "cgm"
	KindWear  Kind = "wear"
	KindDays  Kind = "days"
	KindFiles Kind = "files"
	KindDiet  Kind = "diet"
	KindTrace Kind = "trace"
)

// Kinds lists every supported format.
var Kinds = []Kind{KindCGM, KindWear, KindDays, KindFiles, KindDiet, KindTrace}

// ParseKind validates a format name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToLower(s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ingest kind %q", s)
}

// Rows holds whatever one file produced.
type Rows struct {
	Glucose  []models.GlucoseReading
	Wear     []models.WearTimeRecord
	Activity []models.ActivitySummaryRow
	Files    []models.FileMetadata
	Diet     []models.DietaryEntry
	Trace    []models.ActivityTracePoint
}

// Len counts every row.
func (r Rows) Len() int {
	return len(r.Glucose) + len(r.Wear) + len(r.Activity) + len(r.Files) + len(r.Diet) + len(r.Trace)
}

// Parse dispatches to the parser for kind.
func Parse(kind Kind, name string, r io.Reader) (Rows, error) {
	var out Rows
	var err error
	switch kind {
	case KindCGM:
		out.Glucose, err = ParseCGM(name, r)
	case KindWear:
		out.Wear, err = ParseWearTime(name, r)
	case KindDays:
		out.Activity, err = ParseDaySummary(name, r)
	case KindFiles:
		out.Files, err = ParseFileSummary(name, r)
	case KindDiet:
		out.Diet, err = ParseDietary(name, r)
	case KindTrace:
		out.Trace, err = ParseTrace(name, r)
	default:
		err = fmt.Errorf("unknown ingest kind %q", kind)
	}
	return out, err
}

// cgmPreamble is the number of export banner lines above the CGM header.
const cgmPreamble = 2

// CGM export columns.
const (
	colDeviceTimestamp = "Device Timestamp"
	colDevice          = "Device"
	colSerialNumber    = "Serial Number"
	colRecordType      = "Record Type"
	colHistoricGlucose = "Historic Glucose mg/dL"
)

// CGMFileName splits "<pid>_<timepoint>[_...].csv" into its pid and
// timepoint.
func CGMFileName(name string) (pid, timepoint string, err error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%s: expected <pid>_<timepoint> file name", filepath.Base(name))
	}
	return parts[0], parts[1], nil
}

// ParseCGM reads a CGM reader export. Rows without a historic glucose value
// (scan and note records) are skipped. Device timestamps are kept verbatim.
func ParseCGM(name string, r io.Reader) ([]models.GlucoseReading, error) {
	pid, timepoint, err := CGMFileName(name)
	if err != nil {
		return nil, err
	}
	t, err := readTable(name, r, cgmPreamble)
	if err != nil {
		return nil, err
	}
	if err := t.require(colDeviceTimestamp, colHistoricGlucose); err != nil {
		return nil, err
	}

	out := make([]models.GlucoseReading, 0, len(t.rows))
	for i, row := range t.rows {
		line := lineOf(cgmPreamble, i)
		if isBlank(t.str(row, colHistoricGlucose)) {
			continue
		}
		glucose, err := t.float(row, line, colHistoricGlucose)
		if err != nil {
			return nil, err
		}
		ts := t.str(row, colDeviceTimestamp)
		if ts == "" {
			return nil, fmt.Errorf("%s line %d: empty device timestamp", name, line)
		}
		reading := models.NewGlucoseReading(pid, ts, glucose).WithTimepoint(timepoint)
		reading.Device = t.str(row, colDevice)
		reading.SerialNumber = t.str(row, colSerialNumber)
		if rt := t.str(row, colRecordType); !isBlank(rt) {
			n, err := strconv.Atoi(rt)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: invalid record type %q", name, line, rt)
			}
			reading.RecordType = n
		}
		out = append(out, *reading)
	}
	return out, nil
}

// ParseWearTime reads daily wear rows: pid, calendar_date, day,
// recorded_wear_time_hrs.
func ParseWearTime(name string, r io.Reader) ([]models.WearTimeRecord, error) {
	t, err := readTable(name, r, 0)
	if err != nil {
		return nil, err
	}
	if err := t.require("pid", "calendar_date", "recorded_wear_time_hrs"); err != nil {
		return nil, err
	}

	out := make([]models.WearTimeRecord, 0, len(t.rows))
	for i, row := range t.rows {
		line := lineOf(0, i)
		rec := models.WearTimeRecord{
			PID:  t.str(row, "pid"),
			Date: t.str(row, "calendar_date"),
			Day:  t.str(row, "day"),
		}
		if rec.PID == "" {
			return nil, fmt.Errorf("%s line %d: empty pid", name, line)
		}
		hrs, ok, err := t.number(row, line, "recorded_wear_time_hrs")
		if err != nil {
			return nil, err
		}
		if !ok {
			// No recording that day; a zero would drag the averages down.
			continue
		}
		rec.RecordedHours = hrs
		out = append(out, rec)
	}
	return out, nil
}

// ParseDaySummary reads per-day accelerometer summaries using the summary
// tool's column names (dur_day_total_IN_min, dur_spt_sleep_min, ...).
func ParseDaySummary(name string, r io.Reader) ([]models.ActivitySummaryRow, error) {
	t, err := readTable(name, r, 0)
	if err != nil {
		return nil, err
	}
	if err := t.require("pid", "calendar_date"); err != nil {
		return nil, err
	}

	out := make([]models.ActivitySummaryRow, 0, len(t.rows))
	for i, row := range t.rows {
		line := lineOf(0, i)
		rec := models.ActivitySummaryRow{
			PID:        t.str(row, "pid"),
			Date:       t.str(row, "calendar_date"),
			SleepOnset: t.str(row, "sleeponset_ts"),
			Wakeup:     t.str(row, "wakeup_ts"),
		}
		if rec.PID == "" {
			return nil, fmt.Errorf("%s line %d: empty pid", name, line)
		}
		err := t.floats(row, line, map[string]*float64{
			"dur_day_total_IN_min":         &rec.SedentaryMin,
			"dur_day_total_LIG_min":        &rec.LightMin,
			"dur_day_total_MOD_min":        &rec.ModerateMin,
			"dur_day_total_VIG_min":        &rec.VigorousMin,
			"dur_spt_sleep_min":            &rec.SleepMin,
			"dur_spt_min":                  &rec.SptMin,
			"nonwear_perc_day_spt":         &rec.NonWearPct,
			"sleep_efficiency_after_onset": &rec.SleepEfficiency,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseFileSummary reads one row per device file: pid, filename,
// file_device_id, file_size (bytes), file_start_time, file_end_time,
// wear_time_overall_days, non_wear_time_overall_days, good_calibration.
func ParseFileSummary(name string, r io.Reader) ([]models.FileMetadata, error) {
	t, err := readTable(name, r, 0)
	if err != nil {
		return nil, err
	}
	if err := t.require("pid", "file_size"); err != nil {
		return nil, err
	}

	out := make([]models.FileMetadata, 0, len(t.rows))
	for i, row := range t.rows {
		line := lineOf(0, i)
		rec := models.FileMetadata{
			PID:             t.str(row, "pid"),
			FileName:        t.first(row, "file_name", "filename"),
			DeviceID:        t.first(row, "file_device_id", "device_id"),
			StartTime:       t.str(row, "file_start_time"),
			EndTime:         t.str(row, "file_end_time"),
			GoodCalibration: parseBool(t.str(row, "good_calibration")),
		}
		if rec.PID == "" {
			return nil, fmt.Errorf("%s line %d: empty pid", name, line)
		}
		size, ok, err := t.number(row, line, "file_size")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s line %d: file %q: missing file_size", name, line, rec.FileName)
		}
		rec.FileSizeBytes = int64(size)
		err = t.floats(row, line, map[string]*float64{
			"wear_time_overall_days":     &rec.WearDays,
			"non_wear_time_overall_days": &rec.NonWearDays,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Food log columns.
const (
	colDietDate  = "Date"
	colDietTime  = "Time"
	colDietCarbs = "Total Carbs (g)"
	colDietFat   = "Total Fat (g)"
	colProtein   = "Protein (g)"
	colCalories  = "Calories"
	colGL        = "GL"
	colRawData   = "Raw Data"
)

// ParseDietary reads a food log export. The pid comes from a pid column when
// present, otherwise from the file name prefix.
func ParseDietary(name string, r io.Reader) ([]models.DietaryEntry, error) {
	t, err := readTable(name, r, 0)
	if err != nil {
		return nil, err
	}
	if err := t.require(colDietDate); err != nil {
		return nil, err
	}
	filePID := strings.SplitN(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), "_", 2)[0]

	out := make([]models.DietaryEntry, 0, len(t.rows))
	for i, row := range t.rows {
		line := lineOf(0, i)
		date := t.str(row, colDietDate)
		if date == "" {
			continue
		}
		rec := models.DietaryEntry{
			PID:         t.first(row, "pid"),
			Date:        date,
			Description: t.first(row, colRawData, "Foods, amounts, preparation"),
		}
		if rec.PID == "" {
			rec.PID = filePID
		}
		if tm := t.str(row, colDietTime); tm != "" {
			rec.Timestamp = date + " " + tm
		}
		err := t.floats(row, line, map[string]*float64{
			colDietCarbs: &rec.CarbsG,
			colDietFat:   &rec.FatG,
			colProtein:   &rec.ProteinG,
			colCalories:  &rec.Calories,
			colGL:        &rec.GlycemicLoad,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseTrace reads minute-level activity: pid, timestamp, sedentary, light,
// moderate_vigorous, sleep.
func ParseTrace(name string, r io.Reader) ([]models.ActivityTracePoint, error) {
	t, err := readTable(name, r, 0)
	if err != nil {
		return nil, err
	}
	if err := t.require("pid", "timestamp"); err != nil {
		return nil, err
	}

	out := make([]models.ActivityTracePoint, 0, len(t.rows))
	for i, row := range t.rows {
		line := lineOf(0, i)
		rec := models.ActivityTracePoint{
			PID:       t.str(row, "pid"),
			Timestamp: t.str(row, "timestamp"),
		}
		if rec.PID == "" || rec.Timestamp == "" {
			return nil, fmt.Errorf("%s line %d: empty pid or timestamp", name, line)
		}
		err := t.floats(row, line, map[string]*float64{
			"sedentary":         &rec.Sedentary,
			"light":             &rec.Light,
			"moderate_vigorous": &rec.ModerateVigorous,
			"sleep":             &rec.Sleep,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
