// ABOUTME: Cohort report combining the headline metrics for export.
// ABOUTME: Independent fetches run concurrently; empty sections are omitted.
package aggregate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// CohortReport is the exported snapshot of the cohort.
type CohortReport struct {
	GeneratedAt     time.Time     `json:"generated_at" yaml:"generated_at"`
	Filter          Filter        `json:"filter" yaml:"filter"`
	Participants    []string      `json:"participants" yaml:"participants"`
	CGM             *CGMMetrics   `json:"cgm_metrics,omitempty" yaml:"cgm_metrics,omitempty"`
	TimeInRange     []TimeInRange `json:"time_in_range" yaml:"time_in_range"`
	WearTimeBoxPlot *BoxPlot      `json:"wear_time_boxplot,omitempty" yaml:"wear_time_boxplot,omitempty"`
	SleepBoxPlot    *BoxPlot      `json:"avg_sleep_boxplot,omitempty" yaml:"avg_sleep_boxplot,omitempty"`
	FileSizeBoxPlot *BoxPlot      `json:"file_size_boxplot,omitempty" yaml:"file_size_boxplot,omitempty"`
	QC              *QCMetrics    `json:"qc_metrics,omitempty" yaml:"qc_metrics,omitempty"`
}

// CohortReport gathers the headline metrics in parallel. Sections with no
// input are left nil rather than failing the report.
func (e *Engine) CohortReport(ctx context.Context, f Filter) (CohortReport, error) {
	f, err := f.Normalize()
	if err != nil {
		return CohortReport{}, err
	}
	r := CohortReport{GeneratedAt: time.Now().UTC(), Filter: f}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pids, err := e.Participants(gctx)
		r.Participants = pids
		return err
	})
	g.Go(func() error {
		m, err := e.CGMMetrics(gctx, f)
		return optional(&r.CGM, m, err)
	})
	g.Go(func() error {
		tir, err := e.timeInRanges(gctx, f)
		r.TimeInRange = tir
		return err
	})
	g.Go(func() error {
		b, err := e.WearTimeBoxPlot(gctx, f)
		return optional(&r.WearTimeBoxPlot, b, err)
	})
	g.Go(func() error {
		b, err := e.AvgSleepBoxPlot(gctx, f)
		return optional(&r.SleepBoxPlot, b, err)
	})
	g.Go(func() error {
		b, err := e.FileSizeBoxPlot(gctx, f)
		return optional(&r.FileSizeBoxPlot, b, err)
	})
	g.Go(func() error {
		q, err := e.QCMetrics(gctx, f)
		return optional(&r.QC, q, err)
	})
	if err := g.Wait(); err != nil {
		return CohortReport{}, err
	}
	if r.TimeInRange == nil {
		r.TimeInRange = []TimeInRange{}
	}
	return r, nil
}

// optional stores v in *dst on success and swallows empty-input errors.
func optional[T any](dst **T, v T, err error) error {
	if err != nil {
		if isEmpty(err) {
			return nil
		}
		return err
	}
	*dst = &v
	return nil
}

func isEmpty(err error) bool {
	var empty *EmptyInputError
	var none *NoDataError
	return errors.As(err, &empty) || errors.As(err, &none)
}
