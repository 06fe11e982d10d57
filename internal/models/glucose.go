// ABOUTME: CGM glucose reading model and clinical band/status enums.
// ABOUTME: Readings keep the device timestamp exactly as ingested.
package models

// GlucoseBand is one of the five clinical time-in-range bands.
type GlucoseBand string

const (
	BandVeryLow  GlucoseBand = "very_low"
	BandLow      GlucoseBand = "low"
	BandTarget   GlucoseBand = "target"
	BandHigh     GlucoseBand = "high"
	BandVeryHigh GlucoseBand = "very_high"
)

// AllGlucoseBands lists bands from lowest to highest.
var AllGlucoseBands = []GlucoseBand{
	BandVeryLow, BandLow, BandTarget, BandHigh, BandVeryHigh,
}

// GlucoseStatus is the per-reading event classification.
type GlucoseStatus string

const (
	StatusHypo   GlucoseStatus = "hypo"
	StatusNormal GlucoseStatus = "normal"
	StatusHyper  GlucoseStatus = "hyper"
)

// GlucoseReading is a single historic CGM sample.
type GlucoseReading struct {
	PID             string  `json:"pid" yaml:"pid"`
	Timepoint       string  `json:"timepoint" yaml:"timepoint"`
	DeviceTimestamp string  `json:"device_timestamp" yaml:"device_timestamp"`
	GlucoseMgDL     float64 `json:"glucose_mg_dl" yaml:"glucose_mg_dl"`
	Device          string  `json:"device,omitempty" yaml:"device,omitempty"`
	SerialNumber    string  `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	RecordType      int     `json:"record_type" yaml:"record_type"`
}

// NewGlucoseReading creates a reading with the required fields set.
func NewGlucoseReading(pid, deviceTimestamp string, glucose float64) *GlucoseReading {
	return &GlucoseReading{
		PID:             pid,
		DeviceTimestamp: deviceTimestamp,
		GlucoseMgDL:     glucose,
	}
}

// WithTimepoint sets the study timepoint (e.g. "baseline").
func (r *GlucoseReading) WithTimepoint(tp string) *GlucoseReading {
	r.Timepoint = tp
	return r
}
