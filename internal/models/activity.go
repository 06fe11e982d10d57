// ABOUTME: Accelerometer-derived models: daily wear time, day summaries, minute traces.
// ABOUTME: Dates are stored as YYYY-MM-DD strings exactly as ingested.
package models

// WearTimeRecord is one participant-day of recorded device wear.
type WearTimeRecord struct {
	PID           string  `json:"pid" yaml:"pid"`
	Date          string  `json:"calendar_date" yaml:"calendar_date"`
	Day           string  `json:"day,omitempty" yaml:"day,omitempty"`
	RecordedHours float64 `json:"recorded_wear_time_hrs" yaml:"recorded_wear_time_hrs"`
}

// ActivitySummaryRow is one participant-day of activity and sleep totals.
type ActivitySummaryRow struct {
	PID             string  `json:"pid" yaml:"pid"`
	Date            string  `json:"calendar_date" yaml:"calendar_date"`
	SedentaryMin    float64 `json:"sedentary_min" yaml:"sedentary_min"`
	LightMin        float64 `json:"light_min" yaml:"light_min"`
	ModerateMin     float64 `json:"moderate_min" yaml:"moderate_min"`
	VigorousMin     float64 `json:"vigorous_min" yaml:"vigorous_min"`
	SleepMin        float64 `json:"sleep_min" yaml:"sleep_min"`
	SptMin          float64 `json:"spt_min" yaml:"spt_min"`
	NonWearPct      float64 `json:"nonwear_pct" yaml:"nonwear_pct"`
	SleepOnset      string  `json:"sleep_onset,omitempty" yaml:"sleep_onset,omitempty"`
	Wakeup          string  `json:"wakeup,omitempty" yaml:"wakeup,omitempty"`
	SleepEfficiency float64 `json:"sleep_efficiency" yaml:"sleep_efficiency"`
}

// ActivityTracePoint is one minute of classified activity for a participant.
type ActivityTracePoint struct {
	PID              string  `json:"pid" yaml:"pid"`
	Timestamp        string  `json:"timestamp" yaml:"timestamp"`
	Sedentary        float64 `json:"sedentary" yaml:"sedentary"`
	Light            float64 `json:"light" yaml:"light"`
	ModerateVigorous float64 `json:"moderate_vigorous" yaml:"moderate_vigorous"`
	Sleep            float64 `json:"sleep" yaml:"sleep"`
}

// ActivityCategory names a column of the day summary in tidy form.
type ActivityCategory string

const (
	ActivitySedentary ActivityCategory = "sedentary"
	ActivityLight     ActivityCategory = "light"
	ActivityModerate  ActivityCategory = "moderate"
	ActivityVigorous  ActivityCategory = "vigorous"
)

// AllActivityCategories is the stable legend order for activity charts.
var AllActivityCategories = []ActivityCategory{
	ActivitySedentary, ActivityLight, ActivityModerate, ActivityVigorous,
}
