// ABOUTME: Aggregation engine: fetches rows from the injected Source and runs
// ABOUTME: the pure aggregations, optionally behind a read-through cache.
package aggregate

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/workwell/internal/cache"
	"github.com/harperreed/workwell/internal/models"
)

// DefaultCacheTTL is used when a cache is configured without a TTL.
const DefaultCacheTTL = 5 * time.Minute

// Engine answers metric requests. It holds no mutable aggregation state;
// each call fetches its own snapshot of rows.
type Engine struct {
	src    Source
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache puts a read-through cache in front of every metric.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		e.ttl = ttl
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine builds an engine over src.
func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{src: src, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cached serves metric from the cache when present, otherwise computes it
// and stores the JSON encoding. Cache failures are logged, never returned.
func cached[T any](ctx context.Context, e *Engine, metric, key string, compute func(context.Context) (T, error)) (T, error) {
	if e.cache == nil {
		return compute(ctx)
	}

	k := metric + "?" + key
	raw, ok, err := e.cache.Get(ctx, k)
	if err != nil {
		e.logger.Warn("cache read failed", zap.String("key", k), zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			e.logger.Debug("cache hit", zap.String("key", k))
			return v, nil
		}
		e.logger.Warn("cache entry undecodable", zap.String("key", k))
	}

	e.logger.Debug("cache miss", zap.String("key", k))
	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := e.cache.Set(ctx, k, raw, e.ttl); err != nil {
			e.logger.Warn("cache write failed", zap.String("key", k), zap.Error(err))
		}
	}
	return v, nil
}

func (e *Engine) glucose(ctx context.Context, f Filter) ([]models.GlucoseReading, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := e.src.GlucoseReadings(ctx, f)
	if err != nil {
		return nil, sourceErr("fetch glucose readings", f, err)
	}
	return filterGlucose(f, rows), nil
}

func (e *Engine) files(ctx context.Context, f Filter) ([]models.FileMetadata, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := e.src.FileMetadata(ctx, f)
	if err != nil {
		return nil, sourceErr("fetch file metadata", f, err)
	}
	return rows, nil
}

func (e *Engine) activity(ctx context.Context, f Filter) ([]models.ActivitySummaryRow, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := e.src.ActivitySummaries(ctx, f)
	if err != nil {
		return nil, sourceErr("fetch activity summaries", f, err)
	}
	return rows, nil
}

func (e *Engine) wearTime(ctx context.Context, f Filter) ([]models.WearTimeRecord, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := e.src.WearTime(ctx, f)
	if err != nil {
		return nil, sourceErr("fetch wear time", f, err)
	}
	return rows, nil
}

// Participants lists every participant id known to the source.
func (e *Engine) Participants(ctx context.Context) ([]string, error) {
	return cached(ctx, e, MetricParticipants, "", func(ctx context.Context) ([]string, error) {
		pids, err := e.src.Participants(ctx)
		if err != nil {
			return nil, sourceErr("list participants", Filter{}, err)
		}
		if pids == nil {
			pids = []string{}
		}
		return pids, nil
	})
}

// DaysWorn counts distinct CGM days per participant.
func (e *Engine) DaysWorn(ctx context.Context, f Filter) ([]ParticipantDays, error) {
	return cached(ctx, e, MetricDaysWorn, f.Key(), func(ctx context.Context) ([]ParticipantDays, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return nil, err
		}
		return DaysWorn(rows), nil
	})
}

// CGMMetrics computes the cohort CGM summary.
func (e *Engine) CGMMetrics(ctx context.Context, f Filter) (CGMMetrics, error) {
	return cached(ctx, e, MetricCGMMetrics, f.Key(), func(ctx context.Context) (CGMMetrics, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return CGMMetrics{}, err
		}
		return CohortCGMMetrics(rows)
	})
}

// TimeInRanges returns the five-band breakdown for each participant.
func (e *Engine) TimeInRanges(ctx context.Context, f Filter) ([]TimeInRange, error) {
	out, err := e.timeInRanges(ctx, f)
	if err != nil {
		return nil, err
	}
	if missing := missingPIDs(f.PIDs, out); len(missing) > 0 {
		return nil, &NoDataError{Metric: MetricTimeInRange, PID: strings.Join(missing, ","), Filter: f.String()}
	}
	return out, nil
}

func (e *Engine) timeInRanges(ctx context.Context, f Filter) ([]TimeInRange, error) {
	return cached(ctx, e, MetricTimeInRange, f.Key(), func(ctx context.Context) ([]TimeInRange, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return nil, err
		}
		return TimeInRangeByParticipant(rows), nil
	})
}

// GlucoseEvents returns daily hypo/hyper counts with average and peak.
func (e *Engine) GlucoseEvents(ctx context.Context, f Filter) (EventReport, error) {
	return cached(ctx, e, MetricGlucoseEvents, f.Key(), func(ctx context.Context) (EventReport, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return EventReport{}, err
		}
		report := DetectGlucoseEvents(rows)
		e.logExcluded(report)
		return report, nil
	})
}

// GlucoseDistribution returns 10 mg/dL histogram buckets per participant.
func (e *Engine) GlucoseDistribution(ctx context.Context, f Filter) ([]GlucoseBucket, error) {
	return cached(ctx, e, MetricGlucoseDistribution, f.Key(), func(ctx context.Context) ([]GlucoseBucket, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return nil, err
		}
		return GlucoseDistribution(rows), nil
	})
}

// QADashboard bundles daily events, the histogram, and daily averages/peaks.
type QADashboard struct {
	DailyEvents  []DailyGlucose  `json:"event_detection_over_time" yaml:"event_detection_over_time"`
	Distribution []GlucoseBucket `json:"glucose_distribution" yaml:"glucose_distribution"`
	Excluded     int             `json:"excluded_rows" yaml:"excluded_rows"`
}

// QADashboard computes the CGM quality dashboard from one fetch.
func (e *Engine) QADashboard(ctx context.Context, f Filter) (QADashboard, error) {
	return cached(ctx, e, MetricQADashboard, f.Key(), func(ctx context.Context) (QADashboard, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return QADashboard{}, err
		}
		report := DetectGlucoseEvents(rows)
		e.logExcluded(report)
		return QADashboard{
			DailyEvents:  report.Days,
			Distribution: GlucoseDistribution(rows),
			Excluded:     report.Excluded,
		}, nil
	})
}

// DailyAverageGlucose returns one participant's daily mean glucose.
func (e *Engine) DailyAverageGlucose(ctx context.Context, pid string) ([]DailyAverage, error) {
	f := ForParticipant(pid)
	return cached(ctx, e, MetricDailyAverageGlucose, f.Key(), func(ctx context.Context) ([]DailyAverage, error) {
		rows, err := e.glucose(ctx, f)
		if err != nil {
			return nil, err
		}
		return DailyAverageGlucose(pid, rows)
	})
}

// HourlyGlucose is one participant-day of readings next to the food log.
type HourlyGlucose struct {
	CGM     []GlucosePoint        `json:"cgm_data" yaml:"cgm_data"`
	FoodLog []models.DietaryEntry `json:"food_log_data" yaml:"food_log_data"`
}

// HourlyGlucose fetches readings and dietary entries concurrently and returns
// the day's labelled trace with its meals.
func (e *Engine) HourlyGlucose(ctx context.Context, pid, date string) (HourlyGlucose, error) {
	d, err := ParseCalendarDate(date)
	if err != nil {
		return HourlyGlucose{}, err
	}
	day := d.Format(DateLayout)
	f := Filter{PIDs: []string{pid}, From: day, To: day}

	return cached(ctx, e, MetricHourlyGlucose, f.Key(), func(ctx context.Context) (HourlyGlucose, error) {
		var readings []models.GlucoseReading
		var meals []models.DietaryEntry

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rows, err := e.glucose(gctx, f)
			readings = rows
			return err
		})
		g.Go(func() error {
			rows, err := e.src.DietaryEntries(gctx, f)
			if err != nil {
				return sourceErr("fetch dietary entries", f, err)
			}
			meals = rows
			return nil
		})
		if err := g.Wait(); err != nil {
			return HourlyGlucose{}, err
		}

		trace, err := GlucoseTrace(pid, f.From, readings)
		if err != nil {
			return HourlyGlucose{}, err
		}
		if meals == nil {
			meals = []models.DietaryEntry{}
		}
		return HourlyGlucose{CGM: trace, FoodLog: meals}, nil
	})
}

// FileSummaries returns normalized file metadata for the QC dashboard.
func (e *Engine) FileSummaries(ctx context.Context, f Filter) ([]FileSummary, error) {
	return cached(ctx, e, MetricFileMetadata, f.Key(), func(ctx context.Context) ([]FileSummary, error) {
		rows, err := e.files(ctx, f)
		if err != nil {
			return nil, err
		}
		return NormalizeFiles(rows)
	})
}

// QCMetrics summarizes device file quality.
func (e *Engine) QCMetrics(ctx context.Context, f Filter) (QCMetrics, error) {
	return cached(ctx, e, MetricQCMetrics, f.Key(), func(ctx context.Context) (QCMetrics, error) {
		rows, err := e.files(ctx, f)
		if err != nil {
			return QCMetrics{}, err
		}
		return ComputeQCMetrics(rows)
	})
}

// WearVsNonWear returns tidy wear/non-wear rows per participant.
func (e *Engine) WearVsNonWear(ctx context.Context, f Filter) ([]TidyRow, error) {
	return cached(ctx, e, MetricWearVsNonWear, f.Key(), func(ctx context.Context) ([]TidyRow, error) {
		rows, err := e.files(ctx, f)
		if err != nil {
			return nil, err
		}
		return ReshapeWearNonWear(WearSummaries(rows)), nil
	})
}

// CalibrationCheck lists participants with good calibration.
func (e *Engine) CalibrationCheck(ctx context.Context, f Filter) ([]CalibrationStatus, error) {
	return cached(ctx, e, MetricCalibrationCheck, f.Key(), func(ctx context.Context) ([]CalibrationStatus, error) {
		rows, err := e.files(ctx, f)
		if err != nil {
			return nil, err
		}
		return CalibrationCheck(rows), nil
	})
}

// ParticipantSummary returns a participant's day summaries.
func (e *Engine) ParticipantSummary(ctx context.Context, pid string) ([]models.ActivitySummaryRow, error) {
	f := ForParticipant(pid)
	return cached(ctx, e, MetricParticipantSummary, f.Key(), func(ctx context.Context) ([]models.ActivitySummaryRow, error) {
		rows, err := e.activity(ctx, f)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, &NoDataError{Metric: MetricParticipantSummary, PID: pid}
		}
		return rows, nil
	})
}

// SleepData returns a participant's nightly sleep hours and efficiency.
func (e *Engine) SleepData(ctx context.Context, pid string) ([]SleepDay, error) {
	rows, err := e.ParticipantSummary(ctx, pid)
	if err != nil {
		return nil, err
	}
	return SleepDays(rows), nil
}

// ParticipantActivity returns a participant's dashboard averages.
func (e *Engine) ParticipantActivity(ctx context.Context, pid string) (ActivityCard, error) {
	rows, err := e.ParticipantSummary(ctx, pid)
	if err != nil {
		return ActivityCard{}, err
	}
	return ParticipantActivityCard(pid, rows)
}

// ActivityTidy returns day summaries melted into category rows.
func (e *Engine) ActivityTidy(ctx context.Context, f Filter) ([]TidyRow, error) {
	return cached(ctx, e, MetricActivity, f.Key(), func(ctx context.Context) ([]TidyRow, error) {
		rows, err := e.activity(ctx, f)
		if err != nil {
			return nil, err
		}
		return ReshapeActivity(rows), nil
	})
}

// WearTimeSeries returns a participant's daily wear-time rows by date.
func (e *Engine) WearTimeSeries(ctx context.Context, pid string) ([]models.WearTimeRecord, error) {
	f := ForParticipant(pid)
	return cached(ctx, e, MetricWearTime, f.Key(), func(ctx context.Context) ([]models.WearTimeRecord, error) {
		rows, err := e.wearTime(ctx, f)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, &NoDataError{Metric: MetricWearTime, PID: pid}
		}
		return rows, nil
	})
}

// ParticipantDates returns the distinct dates a participant has wear data for.
func (e *Engine) ParticipantDates(ctx context.Context, pid string) ([]string, error) {
	rows, err := e.WearTimeSeries(ctx, pid)
	if err != nil {
		return nil, err
	}
	return DistinctDates(rows)
}

// ActivityTrace returns a participant's minute-level trace for one date.
func (e *Engine) ActivityTrace(ctx context.Context, pid, date string) ([]models.ActivityTracePoint, error) {
	d, err := ParseCalendarDate(date)
	if err != nil {
		return nil, err
	}
	day := d.Format(DateLayout)
	return cached(ctx, e, MetricActivityTrace, pid+"@"+day, func(ctx context.Context) ([]models.ActivityTracePoint, error) {
		rows, err := e.src.ActivityTrace(ctx, pid, day)
		if err != nil {
			return nil, sourceErr("fetch activity trace", Filter{PIDs: []string{pid}, From: day, To: day}, err)
		}
		if len(rows) == 0 {
			return nil, &NoDataError{Metric: MetricActivityTrace, PID: pid, Filter: "date=" + day}
		}
		return rows, nil
	})
}

// WearTimeBoxPlot summarizes overall wear days across files.
func (e *Engine) WearTimeBoxPlot(ctx context.Context, f Filter) (BoxPlot, error) {
	return cached(ctx, e, MetricWearTimeBoxPlot, f.Key(), func(ctx context.Context) (BoxPlot, error) {
		rows, err := e.files(ctx, f)
		if err != nil {
			return BoxPlot{}, err
		}
		return boxPlotFor(MetricWearTimeBoxPlot, WearTimeDays(rows))
	})
}

// AvgSleepBoxPlot summarizes each participant's mean nightly sleep hours.
func (e *Engine) AvgSleepBoxPlot(ctx context.Context, f Filter) (BoxPlot, error) {
	return cached(ctx, e, MetricAvgSleepBoxPlot, f.Key(), func(ctx context.Context) (BoxPlot, error) {
		rows, err := e.activity(ctx, f)
		if err != nil {
			return BoxPlot{}, err
		}
		return boxPlotFor(MetricAvgSleepBoxPlot, AverageSleepHours(rows))
	})
}

// FileSizeBoxPlot summarizes device file sizes in MB.
func (e *Engine) FileSizeBoxPlot(ctx context.Context, f Filter) (BoxPlot, error) {
	return cached(ctx, e, MetricFileSizeBoxPlot, f.Key(), func(ctx context.Context) (BoxPlot, error) {
		rows, err := e.files(ctx, f)
		if err != nil {
			return BoxPlot{}, err
		}
		return boxPlotFor(MetricFileSizeBoxPlot, FileSizesMB(rows))
	})
}

// ParticipantTrends returns wear-hour series for the requested pids.
func (e *Engine) ParticipantTrends(ctx context.Context, pids []string) (map[string]Trend, error) {
	if len(pids) == 0 {
		return nil, &InvalidRequestError{Metric: MetricParticipantTrends, Reason: "no participant IDs provided"}
	}
	f := Filter{PIDs: pids}
	return cached(ctx, e, MetricParticipantTrends, f.Key(), func(ctx context.Context) (map[string]Trend, error) {
		rows, err := e.wearTime(ctx, f)
		if err != nil {
			return nil, err
		}
		return ParticipantTrends(rows)
	})
}

func (e *Engine) logExcluded(report EventReport) {
	if report.Excluded == 0 {
		return
	}
	e.logger.Warn("excluded readings with unparseable timestamps",
		zap.Int("count", report.Excluded),
		zap.Strings("samples", report.ExcludedSamples))
}

// missingPIDs returns the requested pids, deduplicated in request order, that
// have no row in got.
func missingPIDs(want []string, got []TimeInRange) []string {
	have := make(map[string]struct{}, len(got))
	for _, t := range got {
		have[t.PID] = struct{}{}
	}
	var missing []string
	for _, p := range want {
		if _, ok := have[p]; ok {
			continue
		}
		have[p] = struct{}{}
		missing = append(missing, p)
	}
	return missing
}
