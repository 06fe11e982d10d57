// ABOUTME: CGM aggregations: band classification, time-in-range, daily events.
// ABOUTME: Also histogram buckets, days worn, cohort metrics, and single-day traces.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/harperreed/workwell/internal/models"
)

// Clinical thresholds in mg/dL. 70 and 180 belong to the target band, so
// hypo (<70) is exactly very_low+low and hyper (>180) is high+very_high.
const (
	VeryLowBelow   = 54.0
	HypoBelow      = 70.0
	HyperAbove     = 180.0
	VeryHighAbove  = 250.0
	histogramWidth = 10.0
)

// ClassifyGlucose labels a reading as hypo (<70), hyper (>180), or normal.
func ClassifyGlucose(v float64) models.GlucoseStatus {
	switch {
	case v < HypoBelow:
		return models.StatusHypo
	case v > HyperAbove:
		return models.StatusHyper
	default:
		return models.StatusNormal
	}
}

// ClassifyBand places a reading into one of the five clinical bands.
func ClassifyBand(v float64) models.GlucoseBand {
	switch {
	case v < VeryLowBelow:
		return models.BandVeryLow
	case v < HypoBelow:
		return models.BandLow
	case v <= HyperAbove:
		return models.BandTarget
	case v <= VeryHighAbove:
		return models.BandHigh
	default:
		return models.BandVeryHigh
	}
}

// TimeInRange is the percentage of a participant's readings in each band.
type TimeInRange struct {
	PID      string  `json:"pid" yaml:"pid"`
	Readings int     `json:"readings" yaml:"readings"`
	VeryLow  float64 `json:"very_low" yaml:"very_low"`
	Low      float64 `json:"low" yaml:"low"`
	Target   float64 `json:"target" yaml:"target"`
	High     float64 `json:"high" yaml:"high"`
	VeryHigh float64 `json:"very_high" yaml:"very_high"`
}

// Percent returns the percentage for band b.
func (t TimeInRange) Percent(b models.GlucoseBand) float64 {
	switch b {
	case models.BandVeryLow:
		return t.VeryLow
	case models.BandLow:
		return t.Low
	case models.BandTarget:
		return t.Target
	case models.BandHigh:
		return t.High
	case models.BandVeryHigh:
		return t.VeryHigh
	}
	return 0
}

// ClassifyTimeInRange computes band percentages for one participant.
func ClassifyTimeInRange(pid string, values []float64) (TimeInRange, error) {
	if len(values) == 0 {
		return TimeInRange{}, &NoDataError{Metric: MetricTimeInRange, PID: pid}
	}

	counts := make(map[models.GlucoseBand]int, len(models.AllGlucoseBands))
	for _, v := range values {
		counts[ClassifyBand(v)]++
	}

	total := float64(len(values))
	pct := func(b models.GlucoseBand) float64 {
		return float64(counts[b]) / total * 100
	}

	return TimeInRange{
		PID:      pid,
		Readings: len(values),
		VeryLow:  pct(models.BandVeryLow),
		Low:      pct(models.BandLow),
		Target:   pct(models.BandTarget),
		High:     pct(models.BandHigh),
		VeryHigh: pct(models.BandVeryHigh),
	}, nil
}

// TimeInRangeByParticipant computes band percentages for every participant
// present in readings, ordered by pid.
func TimeInRangeByParticipant(readings []models.GlucoseReading) []TimeInRange {
	byPID, pids := glucoseByPID(readings)
	out := make([]TimeInRange, 0, len(pids))
	for _, pid := range pids {
		// groups are never empty, so this cannot fail
		tir, _ := ClassifyTimeInRange(pid, byPID[pid])
		out = append(out, tir)
	}
	return out
}

// DailyGlucose is the per-participant, per-day event and level summary.
type DailyGlucose struct {
	PID         string  `json:"pid" yaml:"pid"`
	Date        string  `json:"date" yaml:"date"`
	Readings    int     `json:"readings" yaml:"readings"`
	HypoEvents  int     `json:"hypo_events" yaml:"hypo_events"`
	HyperEvents int     `json:"hyper_events" yaml:"hyper_events"`
	AvgGlucose  float64 `json:"avg_glucose" yaml:"avg_glucose"`
	PeakGlucose float64 `json:"peak_glucose" yaml:"peak_glucose"`
}

// EventReport carries the daily summaries plus the rows left out of them.
type EventReport struct {
	Days []DailyGlucose `json:"days" yaml:"days"`
	// Excluded counts readings whose timestamp did not parse.
	Excluded        int      `json:"excluded_rows" yaml:"excluded_rows"`
	ExcludedSamples []string `json:"excluded_samples,omitempty" yaml:"excluded_samples,omitempty"`
}

const maxExcludedSamples = 5

type dayKey struct {
	pid  string
	date string
}

// DetectGlucoseEvents groups readings by (pid, calendar date) and counts
// hypo/hyper events with the daily average and peak. Readings without a
// parseable timestamp are excluded and counted.
func DetectGlucoseEvents(readings []models.GlucoseReading) EventReport {
	var report EventReport
	groups := make(map[dayKey]*DailyGlucose)
	sums := make(map[dayKey]float64)

	for _, r := range readings {
		ts, err := ParseDeviceTimestamp(r.DeviceTimestamp)
		if err != nil {
			report.Excluded++
			if len(report.ExcludedSamples) < maxExcludedSamples {
				report.ExcludedSamples = append(report.ExcludedSamples, r.PID+": "+r.DeviceTimestamp)
			}
			continue
		}

		k := dayKey{pid: r.PID, date: ts.Format(DateLayout)}
		g, ok := groups[k]
		if !ok {
			g = &DailyGlucose{PID: r.PID, Date: k.date, PeakGlucose: r.GlucoseMgDL}
			groups[k] = g
		}
		g.Readings++
		sums[k] += r.GlucoseMgDL
		if r.GlucoseMgDL > g.PeakGlucose {
			g.PeakGlucose = r.GlucoseMgDL
		}
		switch ClassifyGlucose(r.GlucoseMgDL) {
		case models.StatusHypo:
			g.HypoEvents++
		case models.StatusHyper:
			g.HyperEvents++
		}
	}

	report.Days = make([]DailyGlucose, 0, len(groups))
	for k, g := range groups {
		g.AvgGlucose = sums[k] / float64(g.Readings)
		report.Days = append(report.Days, *g)
	}
	sort.Slice(report.Days, func(i, j int) bool {
		if report.Days[i].PID != report.Days[j].PID {
			return report.Days[i].PID < report.Days[j].PID
		}
		return report.Days[i].Date < report.Days[j].Date
	})
	return report
}

// GlucoseBucket counts a participant's readings in one 10 mg/dL bucket.
type GlucoseBucket struct {
	PID         string `json:"pid" yaml:"pid"`
	RangeStart  int    `json:"glucose_range" yaml:"glucose_range"`
	Occurrences int    `json:"occurrences" yaml:"occurrences"`
}

// GlucoseDistribution buckets readings by floor(v/10)*10 per participant.
func GlucoseDistribution(readings []models.GlucoseReading) []GlucoseBucket {
	type key struct {
		pid   string
		start int
	}
	counts := make(map[key]int)
	for _, r := range readings {
		start := int(math.Floor(r.GlucoseMgDL/histogramWidth) * histogramWidth)
		counts[key{r.PID, start}]++
	}

	out := make([]GlucoseBucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, GlucoseBucket{PID: k.pid, RangeStart: k.start, Occurrences: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PID != out[j].PID {
			return out[i].PID < out[j].PID
		}
		return out[i].RangeStart < out[j].RangeStart
	})
	return out
}

// ParticipantDays is the number of distinct days with CGM data.
type ParticipantDays struct {
	PID      string `json:"pid" yaml:"pid"`
	DaysWorn int    `json:"days_worn" yaml:"days_worn"`
}

// DaysWorn counts distinct calendar dates per participant. Readings without a
// parseable timestamp do not contribute a day.
func DaysWorn(readings []models.GlucoseReading) []ParticipantDays {
	days := make(map[string]map[string]struct{})
	for _, r := range readings {
		if _, ok := days[r.PID]; !ok {
			days[r.PID] = make(map[string]struct{})
		}
		ts, err := ParseDeviceTimestamp(r.DeviceTimestamp)
		if err != nil {
			continue
		}
		days[r.PID][ts.Format(DateLayout)] = struct{}{}
	}

	out := make([]ParticipantDays, 0, len(days))
	for pid, set := range days {
		out = append(out, ParticipantDays{PID: pid, DaysWorn: len(set)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// ParticipantCGM is one participant's row of the cohort CGM metrics.
type ParticipantCGM struct {
	PID         string  `json:"pid" yaml:"pid"`
	AvgGlucose  float64 `json:"avg_glucose" yaml:"avg_glucose"`
	TimeInRange float64 `json:"tir" yaml:"tir"`
	HypoEvents  int     `json:"hypo_events" yaml:"hypo_events"`
	HyperEvents int     `json:"hyper_events" yaml:"hyper_events"`
	Variability float64 `json:"glucose_variability" yaml:"glucose_variability"`
}

// ParticipantEvents pairs a participant with a non-zero event count.
type ParticipantEvents struct {
	PID    string `json:"pid" yaml:"pid"`
	Events int    `json:"events" yaml:"events"`
}

// CGMMetrics is the cohort-level CGM summary.
type CGMMetrics struct {
	AverageGlucose       float64             `json:"average_glucose" yaml:"average_glucose"`
	TimeInRange          float64             `json:"time_in_range" yaml:"time_in_range"`
	TotalHypoEvents      int                 `json:"total_hypo_events" yaml:"total_hypo_events"`
	TotalHyperEvents     int                 `json:"total_hyper_events" yaml:"total_hyper_events"`
	TotalParticipants    int                 `json:"total_participants" yaml:"total_participants"`
	GlucoseVariability   float64             `json:"glucose_variability" yaml:"glucose_variability"`
	HypoglycemiaEvents   []ParticipantEvents `json:"hypoglycemia_events" yaml:"hypoglycemia_events"`
	HyperglycemiaEvents  []ParticipantEvents `json:"hyperglycemia_events" yaml:"hyperglycemia_events"`
	ParticipantBreakdown []ParticipantCGM    `json:"participants" yaml:"participants"`
}

// CohortCGMMetrics averages per-participant CGM statistics across the cohort.
// Variability is the population standard deviation of each participant's readings.
func CohortCGMMetrics(readings []models.GlucoseReading) (CGMMetrics, error) {
	if len(readings) == 0 {
		return CGMMetrics{}, &EmptyInputError{Metric: MetricCGMMetrics}
	}

	byPID, pids := glucoseByPID(readings)
	m := CGMMetrics{
		TotalParticipants:   len(pids),
		HypoglycemiaEvents:  []ParticipantEvents{},
		HyperglycemiaEvents: []ParticipantEvents{},
	}

	var sumAvg, sumTIR, sumVar float64
	for _, pid := range pids {
		values := byPID[pid]
		p := ParticipantCGM{
			PID:         pid,
			AvgGlucose:  mean(values),
			Variability: populationStdDev(values),
		}
		var inTarget int
		for _, v := range values {
			switch ClassifyGlucose(v) {
			case models.StatusHypo:
				p.HypoEvents++
			case models.StatusHyper:
				p.HyperEvents++
			default:
				inTarget++
			}
		}
		p.TimeInRange = float64(inTarget) / float64(len(values)) * 100

		sumAvg += p.AvgGlucose
		sumTIR += p.TimeInRange
		sumVar += p.Variability
		m.TotalHypoEvents += p.HypoEvents
		m.TotalHyperEvents += p.HyperEvents
		if p.HypoEvents > 0 {
			m.HypoglycemiaEvents = append(m.HypoglycemiaEvents, ParticipantEvents{PID: pid, Events: p.HypoEvents})
		}
		if p.HyperEvents > 0 {
			m.HyperglycemiaEvents = append(m.HyperglycemiaEvents, ParticipantEvents{PID: pid, Events: p.HyperEvents})
		}
		m.ParticipantBreakdown = append(m.ParticipantBreakdown, p)
	}

	n := float64(len(pids))
	m.AverageGlucose = sumAvg / n
	m.TimeInRange = sumTIR / n
	m.GlucoseVariability = sumVar / n
	return m, nil
}

// DailyAverage is a participant's mean glucose for one day.
type DailyAverage struct {
	Date       string  `json:"date" yaml:"date"`
	AvgGlucose float64 `json:"avg_glucose" yaml:"avg_glucose"`
}

// DailyAverageGlucose returns one participant's daily means ordered by date.
func DailyAverageGlucose(pid string, readings []models.GlucoseReading) ([]DailyAverage, error) {
	report := DetectGlucoseEvents(readings)
	out := make([]DailyAverage, 0, len(report.Days))
	for _, d := range report.Days {
		if d.PID != pid {
			continue
		}
		out = append(out, DailyAverage{Date: d.Date, AvgGlucose: d.AvgGlucose})
	}
	if len(out) == 0 {
		return nil, &NoDataError{Metric: MetricDailyAverageGlucose, PID: pid}
	}
	return out, nil
}

// GlucosePoint is a single reading on a participant's day trace.
type GlucosePoint struct {
	Timestamp string               `json:"timestamp" yaml:"timestamp"`
	Glucose   float64              `json:"glucose_level" yaml:"glucose_level"`
	Status    models.GlucoseStatus `json:"status" yaml:"status"`
}

// GlucoseTrace returns a participant's readings on date (YYYY-MM-DD) in time
// order, each labelled hypo/normal/hyper.
func GlucoseTrace(pid, date string, readings []models.GlucoseReading) ([]GlucosePoint, error) {
	day, err := ParseCalendarDate(date)
	if err != nil {
		return nil, err
	}
	want := day.Format(DateLayout)

	type stamped struct {
		at time.Time
		p  GlucosePoint
	}
	var points []stamped
	for _, r := range readings {
		if r.PID != pid {
			continue
		}
		ts, err := ParseDeviceTimestamp(r.DeviceTimestamp)
		if err != nil || ts.Format(DateLayout) != want {
			continue
		}
		points = append(points, stamped{at: ts, p: GlucosePoint{
			Timestamp: ts.Format(TimestampLayout),
			Glucose:   r.GlucoseMgDL,
			Status:    ClassifyGlucose(r.GlucoseMgDL),
		}})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	out := make([]GlucosePoint, len(points))
	for i, s := range points {
		out[i] = s.p
	}
	return out, nil
}

// glucoseByPID groups reading values by participant and returns sorted pids.
func glucoseByPID(readings []models.GlucoseReading) (map[string][]float64, []string) {
	byPID := make(map[string][]float64)
	for _, r := range readings {
		byPID[r.PID] = append(byPID[r.PID], r.GlucoseMgDL)
	}
	pids := make([]string, 0, len(byPID))
	for pid := range byPID {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	return byPID, pids
}
