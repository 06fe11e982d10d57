// ABOUTME: Device file metadata and dietary log models.
// ABOUTME: Start/end times keep the zoned "...+00:00[UTC]" form until normalized.
package models

// FileMetadata describes one ingested accelerometer file.
type FileMetadata struct {
	PID             string  `json:"pid" yaml:"pid"`
	FileName        string  `json:"file_name" yaml:"file_name"`
	DeviceID        string  `json:"device_id" yaml:"device_id"`
	FileSizeBytes   int64   `json:"file_size_bytes" yaml:"file_size_bytes"`
	StartTime       string  `json:"start_time" yaml:"start_time"`
	EndTime         string  `json:"end_time" yaml:"end_time"`
	WearDays        float64 `json:"wear_time_days" yaml:"wear_time_days"`
	NonWearDays     float64 `json:"non_wear_time_days" yaml:"non_wear_time_days"`
	GoodCalibration bool    `json:"good_calibration" yaml:"good_calibration"`
}

// DietaryEntry is one logged meal or drink.
type DietaryEntry struct {
	PID          string  `json:"pid" yaml:"pid"`
	Date         string  `json:"date" yaml:"date"`
	Timestamp    string  `json:"meal_timestamp" yaml:"meal_timestamp"`
	CarbsG       float64 `json:"total_carbs_g" yaml:"total_carbs_g"`
	FatG         float64 `json:"total_fat_g" yaml:"total_fat_g"`
	ProteinG     float64 `json:"protein_g" yaml:"protein_g"`
	Calories     float64 `json:"calories" yaml:"calories"`
	GlycemicLoad float64 `json:"glycemic_load" yaml:"glycemic_load"`
	Description  string  `json:"raw_data,omitempty" yaml:"raw_data,omitempty"`
}
