// ABOUTME: Row source contract injected into the engine, plus the request filter.
// ABOUTME: Filters encode canonically so they can key the read-through cache.
package aggregate

import (
	"context"
	"sort"
	"strings"

	"github.com/harperreed/workwell/internal/models"
)

// Source fetches typed rows for the engine. Implementations apply PID and
// calendar-date bounds where the stored column allows it; the engine applies
// the remaining date bounds itself.
type Source interface {
	Participants(ctx context.Context) ([]string, error)
	GlucoseReadings(ctx context.Context, f Filter) ([]models.GlucoseReading, error)
	WearTime(ctx context.Context, f Filter) ([]models.WearTimeRecord, error)
	ActivitySummaries(ctx context.Context, f Filter) ([]models.ActivitySummaryRow, error)
	FileMetadata(ctx context.Context, f Filter) ([]models.FileMetadata, error)
	DietaryEntries(ctx context.Context, f Filter) ([]models.DietaryEntry, error)
	ActivityTrace(ctx context.Context, pid, date string) ([]models.ActivityTracePoint, error)
}

// Filter narrows a request to some participants and an inclusive date range.
// Zero values mean no restriction.
type Filter struct {
	PIDs []string `json:"pids,omitempty" yaml:"pids,omitempty"`
	From string   `json:"from,omitempty" yaml:"from,omitempty"`
	To   string   `json:"to,omitempty" yaml:"to,omitempty"`
}

// ForParticipant returns a filter for a single pid.
func ForParticipant(pid string) Filter {
	return Filter{PIDs: []string{pid}}
}

// Validate checks that From and To are YYYY-MM-DD dates.
func (f Filter) Validate() error {
	_, err := f.Normalize()
	return err
}

// Normalize returns a copy of f with From and To reduced to plain YYYY-MM-DD,
// so "2023-05-01 00:00:00" bounds the same day as "2023-05-01".
func (f Filter) Normalize() (Filter, error) {
	from, err := normalizeDate(f.From)
	if err != nil {
		return Filter{}, err
	}
	to, err := normalizeDate(f.To)
	if err != nil {
		return Filter{}, err
	}
	f.From, f.To = from, to
	return f, nil
}

func normalizeDate(d string) (string, error) {
	if d == "" {
		return "", nil
	}
	t, err := ParseCalendarDate(d)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// Key is the canonical encoding used in cache keys: sorted, deduplicated
// pids followed by the date bounds.
func (f Filter) Key() string {
	pids := make([]string, 0, len(f.PIDs))
	seen := make(map[string]struct{}, len(f.PIDs))
	for _, p := range f.PIDs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pids = append(pids, p)
	}
	sort.Strings(pids)
	if n, err := f.Normalize(); err == nil {
		f = n
	}
	return "pids=" + strings.Join(pids, ",") + "&from=" + f.From + "&to=" + f.To
}

// String renders the filter for error messages.
func (f Filter) String() string {
	if len(f.PIDs) == 0 && f.From == "" && f.To == "" {
		return ""
	}
	return f.Key()
}

// HasPID reports whether pid passes the participant restriction.
func (f Filter) HasPID(pid string) bool {
	if len(f.PIDs) == 0 {
		return true
	}
	for _, p := range f.PIDs {
		if p == pid {
			return true
		}
	}
	return false
}

// HasDate reports whether a YYYY-MM-DD date lies within the bounds.
func (f Filter) HasDate(date string) bool {
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

func (f Filter) dated() bool {
	return f.From != "" || f.To != ""
}

// filterGlucose applies the date bounds to readings whose stored timestamp
// cannot be compared in the source. Unparseable readings are kept when no
// date bound is set so the event detector can count them.
func filterGlucose(f Filter, readings []models.GlucoseReading) []models.GlucoseReading {
	if !f.dated() && len(f.PIDs) == 0 {
		return readings
	}
	out := make([]models.GlucoseReading, 0, len(readings))
	for _, r := range readings {
		if !f.HasPID(r.PID) {
			continue
		}
		if f.dated() {
			ts, err := ParseDeviceTimestamp(r.DeviceTimestamp)
			if err != nil || !f.HasDate(ts.Format(DateLayout)) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
