// ABOUTME: Accelerometer aggregations: wear/non-wear reshaping, activity tidy rows.
// ABOUTME: Also per-participant sleep averages, activity cards, and wear-time trends.
package aggregate

import (
	"sort"

	"github.com/harperreed/workwell/internal/models"
)

// Wear categories in legend order.
const (
	CategoryWear    = "wear"
	CategoryNonWear = "non-wear"
)

// WearSummary is the wide per-participant wear/non-wear row.
type WearSummary struct {
	PID     string  `json:"participant_id" yaml:"participant_id"`
	Wear    float64 `json:"wear_time_days" yaml:"wear_time_days"`
	NonWear float64 `json:"non_wear_time_days" yaml:"non_wear_time_days"`
}

// TidyRow is one (participant, category, value) observation for charting.
type TidyRow struct {
	PID      string  `json:"pid" yaml:"pid"`
	Date     string  `json:"date,omitempty" yaml:"date,omitempty"`
	Category string  `json:"category" yaml:"category"`
	Value    float64 `json:"value" yaml:"value"`
}

// ReshapeWearNonWear melts wide rows into long form, wear before non-wear
// for every participant. Values are not transformed.
func ReshapeWearNonWear(rows []WearSummary) []TidyRow {
	out := make([]TidyRow, 0, len(rows)*2)
	for _, r := range rows {
		out = append(out,
			TidyRow{PID: r.PID, Category: CategoryWear, Value: r.Wear},
			TidyRow{PID: r.PID, Category: CategoryNonWear, Value: r.NonWear},
		)
	}
	return out
}

// WearSummaries extracts the wide wear/non-wear rows from file metadata.
func WearSummaries(files []models.FileMetadata) []WearSummary {
	out := make([]WearSummary, 0, len(files))
	for _, f := range files {
		out = append(out, WearSummary{PID: f.PID, Wear: f.WearDays, NonWear: f.NonWearDays})
	}
	return out
}

// ReshapeActivity melts day summaries into one row per (pid, date, category)
// using the sedentary, light, moderate, vigorous order.
func ReshapeActivity(rows []models.ActivitySummaryRow) []TidyRow {
	out := make([]TidyRow, 0, len(rows)*len(models.AllActivityCategories))
	for _, r := range rows {
		values := [...]float64{r.SedentaryMin, r.LightMin, r.ModerateMin, r.VigorousMin}
		for i, c := range models.AllActivityCategories {
			out = append(out, TidyRow{PID: r.PID, Date: r.Date, Category: string(c), Value: values[i]})
		}
	}
	return out
}

// AverageSleepHours returns each participant's mean nightly sleep in hours,
// ordered by pid.
func AverageSleepHours(rows []models.ActivitySummaryRow) []ParticipantValue {
	byPID := make(map[string][]float64)
	for _, r := range rows {
		byPID[r.PID] = append(byPID[r.PID], r.SleepMin/60.0)
	}
	return participantMeans(byPID)
}

// ActivityCard holds a participant's dashboard averages.
type ActivityCard struct {
	PID             string  `json:"pid" yaml:"pid"`
	Days            int     `json:"days" yaml:"days"`
	AvgNonWearPct   float64 `json:"avg_nonwear_pct" yaml:"avg_nonwear_pct"`
	AvgSedentaryMin float64 `json:"avg_sedentary_min" yaml:"avg_sedentary_min"`
	AvgLightMin     float64 `json:"avg_light_min" yaml:"avg_light_min"`
	AvgModerateMin  float64 `json:"avg_moderate_min" yaml:"avg_moderate_min"`
	AvgVigorousMin  float64 `json:"avg_vigorous_min" yaml:"avg_vigorous_min"`
	AvgSleepHours   float64 `json:"avg_sleep_hours" yaml:"avg_sleep_hours"`
}

// ParticipantActivityCard averages a participant's day summaries.
func ParticipantActivityCard(pid string, rows []models.ActivitySummaryRow) (ActivityCard, error) {
	var nonwear, sed, light, mod, vig, spt []float64
	for _, r := range rows {
		if r.PID != pid {
			continue
		}
		nonwear = append(nonwear, r.NonWearPct)
		sed = append(sed, r.SedentaryMin)
		light = append(light, r.LightMin)
		mod = append(mod, r.ModerateMin)
		vig = append(vig, r.VigorousMin)
		spt = append(spt, r.SptMin)
	}
	if len(sed) == 0 {
		return ActivityCard{}, &NoDataError{Metric: MetricParticipantActivity, PID: pid}
	}
	return ActivityCard{
		PID:             pid,
		Days:            len(sed),
		AvgNonWearPct:   round2(mean(nonwear)),
		AvgSedentaryMin: round2(mean(sed)),
		AvgLightMin:     round2(mean(light)),
		AvgModerateMin:  round2(mean(mod)),
		AvgVigorousMin:  round2(mean(vig)),
		AvgSleepHours:   round2(mean(spt) / 60.0),
	}, nil
}

// SleepDay is one night of sleep for the sleep-hours/efficiency chart.
type SleepDay struct {
	Date       string  `json:"calendar_date" yaml:"calendar_date"`
	SleepHours float64 `json:"sleep_hours" yaml:"sleep_hours"`
	SleepOnset string  `json:"sleeponset_ts,omitempty" yaml:"sleeponset_ts,omitempty"`
	Wakeup     string  `json:"wakeup_ts,omitempty" yaml:"wakeup_ts,omitempty"`
	Efficiency float64 `json:"sleep_efficiency_after_onset" yaml:"sleep_efficiency_after_onset"`
}

// SleepDays converts a participant's day summaries to sleep rows ordered by date.
func SleepDays(rows []models.ActivitySummaryRow) []SleepDay {
	out := make([]SleepDay, 0, len(rows))
	for _, r := range rows {
		out = append(out, SleepDay{
			Date:       r.Date,
			SleepHours: r.SleepMin / 60.0,
			SleepOnset: r.SleepOnset,
			Wakeup:     r.Wakeup,
			Efficiency: r.SleepEfficiency,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Trend is a participant's wear-hour series.
type Trend struct {
	Dates     []string  `json:"dates" yaml:"dates"`
	WearTimes []float64 `json:"wear_times" yaml:"wear_times"`
}

// ParticipantTrends groups wear-time rows into per-pid date/hour series.
// Dates are normalized to YYYY-MM-DD; rows with unparseable dates fail.
func ParticipantTrends(rows []models.WearTimeRecord) (map[string]Trend, error) {
	sorted := make([]models.WearTimeRecord, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PID != sorted[j].PID {
			return sorted[i].PID < sorted[j].PID
		}
		return sorted[i].Date < sorted[j].Date
	})

	out := make(map[string]Trend)
	for _, r := range sorted {
		d, err := ParseCalendarDate(r.Date)
		if err != nil {
			return nil, err
		}
		t := out[r.PID]
		t.Dates = append(t.Dates, d.Format(DateLayout))
		t.WearTimes = append(t.WearTimes, r.RecordedHours)
		out[r.PID] = t
	}
	return out, nil
}

// DistinctDates returns the sorted distinct calendar dates in wear-time rows.
func DistinctDates(rows []models.WearTimeRecord) ([]string, error) {
	set := make(map[string]struct{})
	for _, r := range rows {
		d, err := ParseCalendarDate(r.Date)
		if err != nil {
			return nil, err
		}
		set[d.Format(DateLayout)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func participantMeans(byPID map[string][]float64) []ParticipantValue {
	out := make([]ParticipantValue, 0, len(byPID))
	for pid, vs := range byPID {
		out = append(out, ParticipantValue{PID: pid, Value: mean(vs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}
