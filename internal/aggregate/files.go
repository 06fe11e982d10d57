// ABOUTME: Device file aggregations: size conversion, zoned time normalization,
// ABOUTME: QC metrics, calibration check, and file-size box plot inputs.
package aggregate

import (
	"path/filepath"
	"sort"

	"github.com/harperreed/workwell/internal/models"
)

const bytesPerMB = 1024 * 1024

// BytesToMB converts a byte count to mebibytes.
func BytesToMB(b int64) float64 {
	return float64(b) / bytesPerMB
}

// FileSummary is a file metadata row normalized for display.
type FileSummary struct {
	PID             string  `json:"pid" yaml:"pid"`
	FileName        string  `json:"file_name" yaml:"file_name"`
	DeviceID        string  `json:"device_id" yaml:"device_id"`
	FileSizeMB      float64 `json:"file_size_mb" yaml:"file_size_mb"`
	StartTime       string  `json:"start_time" yaml:"start_time"`
	EndTime         string  `json:"end_time" yaml:"end_time"`
	Timezone        string  `json:"timezone" yaml:"timezone"`
	WearDays        float64 `json:"wear_time_days" yaml:"wear_time_days"`
	NonWearDays     float64 `json:"non_wear_time_days" yaml:"non_wear_time_days"`
	GoodCalibration bool    `json:"good_calibration" yaml:"good_calibration"`
}

// NormalizeFileMetadata converts the size to MB, strips the directory from
// the file name, and splits the zoned start and end times into naive local
// time plus timezone label.
func NormalizeFileMetadata(f models.FileMetadata) (FileSummary, error) {
	start, err := ParseZonedTimestamp(f.StartTime)
	if err != nil {
		return FileSummary{}, err
	}
	end, err := ParseZonedTimestamp(f.EndTime)
	if err != nil {
		return FileSummary{}, err
	}
	return FileSummary{
		PID:             f.PID,
		FileName:        baseName(f.FileName),
		DeviceID:        f.DeviceID,
		FileSizeMB:      BytesToMB(f.FileSizeBytes),
		StartTime:       start.Local.Format(TimestampLayout),
		EndTime:         end.Local.Format(TimestampLayout),
		Timezone:        start.Timezone,
		WearDays:        f.WearDays,
		NonWearDays:     f.NonWearDays,
		GoodCalibration: f.GoodCalibration,
	}, nil
}

// NormalizeFiles normalizes every row, failing on the first malformed one
// with a StoredRowError naming its participant and file.
func NormalizeFiles(files []models.FileMetadata) ([]FileSummary, error) {
	out := make([]FileSummary, 0, len(files))
	for _, f := range files {
		s, err := NormalizeFileMetadata(f)
		if err != nil {
			return nil, &StoredRowError{Table: "file_summary", PID: f.PID, Row: f.FileName, Err: err}
		}
		out = append(out, s)
	}
	return out, nil
}

// QCMetrics summarizes device file quality across the cohort.
type QCMetrics struct {
	FilesProcessed     int     `json:"files_processed" yaml:"files_processed"`
	AvgWearDays        float64 `json:"avg_wear_time_days" yaml:"avg_wear_time_days"`
	AvgNonWearDays     float64 `json:"avg_non_wear_time_days" yaml:"avg_non_wear_time_days"`
	GoodCalibrationCnt int     `json:"good_calibration_count" yaml:"good_calibration_count"`
}

// ComputeQCMetrics counts files, averages wear/non-wear days, and counts
// files with good calibration.
func ComputeQCMetrics(files []models.FileMetadata) (QCMetrics, error) {
	if len(files) == 0 {
		return QCMetrics{}, &EmptyInputError{Metric: MetricQCMetrics}
	}
	wear := make([]float64, len(files))
	nonwear := make([]float64, len(files))
	m := QCMetrics{FilesProcessed: len(files)}
	for i, f := range files {
		wear[i] = f.WearDays
		nonwear[i] = f.NonWearDays
		if f.GoodCalibration {
			m.GoodCalibrationCnt++
		}
	}
	m.AvgWearDays = round2(mean(wear))
	m.AvgNonWearDays = round2(mean(nonwear))
	return m, nil
}

// CalibrationStatus is one participant's calibration flag.
type CalibrationStatus struct {
	PID             string `json:"pid" yaml:"pid"`
	GoodCalibration bool   `json:"good_calibration" yaml:"good_calibration"`
}

// CalibrationCheck lists participants with at least one well-calibrated
// file, ordered by pid.
func CalibrationCheck(files []models.FileMetadata) []CalibrationStatus {
	seen := make(map[string]bool)
	for _, f := range files {
		if f.GoodCalibration {
			seen[f.PID] = true
		}
	}
	out := make([]CalibrationStatus, 0, len(seen))
	for pid := range seen {
		out = append(out, CalibrationStatus{PID: pid, GoodCalibration: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// FileSizesMB returns each file's size in MB keyed by its participant, in
// input order.
func FileSizesMB(files []models.FileMetadata) []ParticipantValue {
	out := make([]ParticipantValue, 0, len(files))
	for _, f := range files {
		out = append(out, ParticipantValue{PID: f.PID, Value: BytesToMB(f.FileSizeBytes)})
	}
	return out
}

// WearTimeDays returns each file's overall wear days keyed by participant,
// in input order.
func WearTimeDays(files []models.FileMetadata) []ParticipantValue {
	out := make([]ParticipantValue, 0, len(files))
	for _, f := range files {
		out = append(out, ParticipantValue{PID: f.PID, Value: f.WearDays})
	}
	return out
}

func baseName(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}
