// ABOUTME: Metric names and the named dispatch table used by /metrics/{name},
// ABOUTME: the MCP compute_metric tool, and the report command.
package aggregate

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Metric names. They double as cache key prefixes and HTTP path segments.
const (
	MetricParticipants        = "pids"
	MetricDaysWorn            = "days-worn"
	MetricCGMMetrics          = "cgm-metrics"
	MetricTimeInRange         = "participant-time-in-ranges"
	MetricGlucoseEvents       = "glucose-events"
	MetricGlucoseDistribution = "glucose-distribution"
	MetricQADashboard         = "qa-dashboard"
	MetricDailyAverageGlucose = "daily-avg-glucose"
	MetricHourlyGlucose       = "hourly-glucose"
	MetricFileMetadata        = "file-metadata"
	MetricQCDashboard         = "qc-dashboard"
	MetricQCMetrics           = "qc-metrics"
	MetricWearVsNonWear       = "wear-vs-nonwear"
	MetricCalibrationCheck    = "calibration-check"
	MetricParticipantSummary  = "participant-summary"
	MetricParticipantActivity = "participant-activity"
	MetricSleepData           = "sleep-data"
	MetricWearTime            = "wear-time"
	MetricParticipantDates    = "participant-dates"
	MetricActivity            = "activity"
	MetricActivityTrace       = "activity-sleep-trace"
	MetricWearTimeBoxPlot     = "wear-time-boxplot"
	MetricAvgSleepBoxPlot     = "avg-sleep-boxplot"
	MetricFileSizeBoxPlot     = "file-size-boxplot"
	MetricParticipantTrends   = "participant-trends"
	MetricCohortReport        = "cohort-report"
)

// MetricInfo describes a dispatchable metric.
type MetricInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// PerParticipant metrics need exactly one pid in the filter.
	PerParticipant bool `json:"per_participant" yaml:"per_participant"`
}

type metricFunc func(ctx context.Context, e *Engine, f Filter) (any, error)

type metricEntry struct {
	info MetricInfo
	run  metricFunc
}

func cohort[T any](fn func(*Engine, context.Context, Filter) (T, error)) metricFunc {
	return func(ctx context.Context, e *Engine, f Filter) (any, error) {
		return fn(e, ctx, f)
	}
}

func perParticipant[T any](name string, fn func(*Engine, context.Context, string) (T, error)) metricFunc {
	return func(ctx context.Context, e *Engine, f Filter) (any, error) {
		if len(f.PIDs) != 1 {
			return nil, &InvalidRequestError{Metric: name, Reason: "exactly one pid is required"}
		}
		return fn(e, ctx, f.PIDs[0])
	}
}

var registry = map[string]metricEntry{
	MetricParticipants: {
		MetricInfo{Name: MetricParticipants, Description: "Participant ids present in any loaded table"},
		func(ctx context.Context, e *Engine, _ Filter) (any, error) { return e.Participants(ctx) },
	},
	MetricDaysWorn: {
		MetricInfo{Name: MetricDaysWorn, Description: "Distinct days with CGM data per participant"},
		cohort((*Engine).DaysWorn),
	},
	MetricCGMMetrics: {
		MetricInfo{Name: MetricCGMMetrics, Description: "Cohort averages of glucose, time in range, events and variability"},
		cohort((*Engine).CGMMetrics),
	},
	MetricTimeInRange: {
		MetricInfo{Name: MetricTimeInRange, Description: "Five-band time in range percentages per participant"},
		cohort((*Engine).TimeInRanges),
	},
	MetricGlucoseEvents: {
		MetricInfo{Name: MetricGlucoseEvents, Description: "Daily hypo/hyper counts with average and peak glucose"},
		cohort((*Engine).GlucoseEvents),
	},
	MetricGlucoseDistribution: {
		MetricInfo{Name: MetricGlucoseDistribution, Description: "Readings per 10 mg/dL bucket per participant"},
		cohort((*Engine).GlucoseDistribution),
	},
	MetricQADashboard: {
		MetricInfo{Name: MetricQADashboard, Description: "Daily events and glucose distribution"},
		cohort((*Engine).QADashboard),
	},
	MetricDailyAverageGlucose: {
		MetricInfo{Name: MetricDailyAverageGlucose, Description: "Daily mean glucose for one participant", PerParticipant: true},
		perParticipant(MetricDailyAverageGlucose, (*Engine).DailyAverageGlucose),
	},
	MetricFileMetadata: {
		MetricInfo{Name: MetricFileMetadata, Description: "Normalized device file metadata"},
		cohort((*Engine).FileSummaries),
	},
	MetricQCDashboard: {
		MetricInfo{Name: MetricQCDashboard, Description: "Device file quality rows"},
		cohort((*Engine).FileSummaries),
	},
	MetricQCMetrics: {
		MetricInfo{Name: MetricQCMetrics, Description: "Files processed, average wear/non-wear days, good calibration count"},
		cohort((*Engine).QCMetrics),
	},
	MetricWearVsNonWear: {
		MetricInfo{Name: MetricWearVsNonWear, Description: "Wear and non-wear days per participant in tidy form"},
		cohort((*Engine).WearVsNonWear),
	},
	MetricCalibrationCheck: {
		MetricInfo{Name: MetricCalibrationCheck, Description: "Participants with good calibration"},
		cohort((*Engine).CalibrationCheck),
	},
	MetricParticipantSummary: {
		MetricInfo{Name: MetricParticipantSummary, Description: "Day summaries for one participant", PerParticipant: true},
		perParticipant(MetricParticipantSummary, (*Engine).ParticipantSummary),
	},
	MetricParticipantActivity: {
		MetricInfo{Name: MetricParticipantActivity, Description: "Average activity and sleep for one participant", PerParticipant: true},
		perParticipant(MetricParticipantActivity, (*Engine).ParticipantActivity),
	},
	MetricSleepData: {
		MetricInfo{Name: MetricSleepData, Description: "Nightly sleep hours and efficiency for one participant", PerParticipant: true},
		perParticipant(MetricSleepData, (*Engine).SleepData),
	},
	MetricWearTime: {
		MetricInfo{Name: MetricWearTime, Description: "Daily recorded wear hours for one participant", PerParticipant: true},
		perParticipant(MetricWearTime, (*Engine).WearTimeSeries),
	},
	MetricParticipantDates: {
		MetricInfo{Name: MetricParticipantDates, Description: "Dates with wear data for one participant", PerParticipant: true},
		perParticipant(MetricParticipantDates, (*Engine).ParticipantDates),
	},
	MetricActivity: {
		MetricInfo{Name: MetricActivity, Description: "Daily activity minutes per category in tidy form"},
		cohort((*Engine).ActivityTidy),
	},
	MetricWearTimeBoxPlot: {
		MetricInfo{Name: MetricWearTimeBoxPlot, Description: "Box plot of overall wear days"},
		cohort((*Engine).WearTimeBoxPlot),
	},
	MetricAvgSleepBoxPlot: {
		MetricInfo{Name: MetricAvgSleepBoxPlot, Description: "Box plot of mean nightly sleep hours"},
		cohort((*Engine).AvgSleepBoxPlot),
	},
	MetricFileSizeBoxPlot: {
		MetricInfo{Name: MetricFileSizeBoxPlot, Description: "Box plot of device file sizes in MB"},
		cohort((*Engine).FileSizeBoxPlot),
	},
	MetricParticipantTrends: {
		MetricInfo{Name: MetricParticipantTrends, Description: "Wear-hour series for the filtered participants"},
		func(ctx context.Context, e *Engine, f Filter) (any, error) { return e.ParticipantTrends(ctx, f.PIDs) },
	},
	MetricCohortReport: {
		MetricInfo{Name: MetricCohortReport, Description: "CGM summary, time in range, box plots and QC metrics"},
		cohort((*Engine).CohortReport),
	},
}

// Metrics lists the dispatchable metrics by name.
func Metrics() []MetricInfo {
	out := make([]MetricInfo, 0, len(registry))
	for _, m := range registry {
		out = append(out, m.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Compute runs the metric registered under name.
func (e *Engine) Compute(ctx context.Context, name string, f Filter) (any, error) {
	m, ok := registry[name]
	if !ok {
		return nil, &UnknownMetricError{Name: name}
	}
	e.logger.Debug("computing metric", zap.String("metric", name), zap.String("filter", f.Key()))
	return m.run(ctx, e, f)
}
