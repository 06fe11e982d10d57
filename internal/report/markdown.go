// ABOUTME: Markdown rendering of the cohort report with humanized sizes and counts.
// ABOUTME: Sections with no data are omitted rather than printed empty.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/harperreed/workwell/internal/aggregate"
)

// WriteMarkdown renders the cohort report as a Markdown document.
func WriteMarkdown(w io.Writer, r aggregate.CohortReport) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Cohort Report - %s\n\n", r.GeneratedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if s := r.Filter.String(); s != "" {
		sb.WriteString(fmt.Sprintf("Filter: `%s`\n\n", s))
	}
	sb.WriteString(fmt.Sprintf("Participants: %s\n\n", humanize.Comma(int64(len(r.Participants)))))

	if r.CGM != nil {
		sb.WriteString("## CGM Summary\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Average glucose | %.1f mg/dL |\n", r.CGM.AverageGlucose))
		sb.WriteString(fmt.Sprintf("| Time in range | %.1f%% |\n", r.CGM.TimeInRange))
		sb.WriteString(fmt.Sprintf("| Glucose variability | %.1f |\n", r.CGM.GlucoseVariability))
		sb.WriteString(fmt.Sprintf("| Hypo events | %s |\n", humanize.Comma(int64(r.CGM.TotalHypoEvents))))
		sb.WriteString(fmt.Sprintf("| Hyper events | %s |\n", humanize.Comma(int64(r.CGM.TotalHyperEvents))))
		sb.WriteString("\n")
	}

	if len(r.TimeInRange) > 0 {
		sb.WriteString("## Time in Range\n\n")
		sb.WriteString("| PID | Readings | Very low | Low | Target | High | Very high |\n")
		sb.WriteString("|-----|----------|----------|-----|--------|------|-----------|\n")
		for _, t := range r.TimeInRange {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% | %.1f%% | %.1f%% | %.1f%% | %.1f%% |\n",
				t.PID, humanize.Comma(int64(t.Readings)),
				t.VeryLow, t.Low, t.Target, t.High, t.VeryHigh))
		}
		sb.WriteString("\n")
	}

	plots := []struct {
		title string
		plot  *aggregate.BoxPlot
		cell  func(float64) string
	}{
		{"Wear Time (days)", r.WearTimeBoxPlot, days},
		{"Average Sleep (hours)", r.SleepBoxPlot, hours},
		{"File Size", r.FileSizeBoxPlot, megabytes},
	}
	for _, p := range plots {
		if p.plot == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", p.title))
		sb.WriteString("| Min | Q1 | Median | Q3 | Max |\n")
		sb.WriteString("|-----|----|--------|----|-----|\n")
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n\n",
			p.cell(p.plot.Min), p.cell(p.plot.Q1), p.cell(p.plot.Median),
			p.cell(p.plot.Q3), p.cell(p.plot.Max)))
	}

	if r.QC != nil {
		sb.WriteString("## Device QC\n\n")
		sb.WriteString(fmt.Sprintf("- Files processed: %s\n", humanize.Comma(int64(r.QC.FilesProcessed))))
		sb.WriteString(fmt.Sprintf("- Average wear: %.2f days\n", r.QC.AvgWearDays))
		sb.WriteString(fmt.Sprintf("- Average non-wear: %.2f days\n", r.QC.AvgNonWearDays))
		sb.WriteString(fmt.Sprintf("- Good calibration: %s\n", humanize.Comma(int64(r.QC.GoodCalibrationCnt))))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func days(v float64) string  { return fmt.Sprintf("%.1f", v) }
func hours(v float64) string { return fmt.Sprintf("%.1f h", v) }

// megabytes renders a MiB value with binary units.
func megabytes(v float64) string {
	if v < 0 {
		return fmt.Sprintf("%.2f MB", v)
	}
	return humanize.IBytes(uint64(v * 1024 * 1024))
}

// HumanSize renders a byte count for CLI tables.
func HumanSize(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return humanize.IBytes(uint64(bytes))
}
