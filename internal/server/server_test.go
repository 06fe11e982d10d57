// ABOUTME: End-to-end tests for the HTTP API over a seeded SQLite store.
// ABOUTME: Exercises routing, filters, the data envelope, and error mapping.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
	"github.com/harperreed/workwell/internal/models"
	"github.com/harperreed/workwell/internal/storage"
)

func seededServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "workwell.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.InsertBatch(context.Background(), &storage.Batch{
		ID:   "seed",
		Kind: "test",
		Glucose: []models.GlucoseReading{
			{PID: "p01", DeviceTimestamp: "01-03-2024 08:00", GlucoseMgDL: 50},
			{PID: "p01", DeviceTimestamp: "01-03-2024 09:00", GlucoseMgDL: 75},
			{PID: "p01", DeviceTimestamp: "01-03-2024 10:00", GlucoseMgDL: 190},
			{PID: "p01", DeviceTimestamp: "01-03-2024 11:00", GlucoseMgDL: 65},
			{PID: "p02", DeviceTimestamp: "01-04-2024 08:00", GlucoseMgDL: 120},
		},
		Wear: []models.WearTimeRecord{
			{PID: "p01", Date: "2024-01-03", RecordedHours: 20},
			{PID: "p01", Date: "2024-01-04", RecordedHours: 22},
			{PID: "p02", Date: "2024-01-04", RecordedHours: 18},
		},
		Activity: []models.ActivitySummaryRow{
			{PID: "p01", Date: "2024-01-03", SedentaryMin: 600, SleepMin: 420, SleepEfficiency: 0.9},
		},
		FileMeta: []models.FileMetadata{
			{PID: "p01", FileName: "/raw/p01.cwa", FileSizeBytes: 1 << 20,
				StartTime: "2024-01-03T08:00:00+05:00[Asia/Karachi]", EndTime: "2024-01-10T08:00:00+05:00[Asia/Karachi]",
				WearDays: 6, NonWearDays: 1, GoodCalibration: true},
		},
		Diet: []models.DietaryEntry{
			{PID: "p01", Date: "2024-01-03", Timestamp: "2024-01-03 12:00", Calories: 500},
		},
	})
	require.NoError(t, err)

	return New(aggregate.NewEngine(db), zap.NewNop()).NewRouter()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestHealth(t *testing.T) {
	rec := get(t, seededServer(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	h := seededServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestParticipants(t *testing.T) {
	rec := get(t, seededServer(t), "/pids")
	require.Equal(t, http.StatusOK, rec.Code)

	var pids []string
	decodeData(t, rec, &pids)
	assert.Equal(t, []string{"p01", "p02"}, pids)
}

func TestGlucoseEventsFiltered(t *testing.T) {
	rec := get(t, seededServer(t), "/glucose-events?pid=p01")
	require.Equal(t, http.StatusOK, rec.Code)

	var report aggregate.EventReport
	decodeData(t, rec, &report)
	require.Len(t, report.Days, 1)
	day := report.Days[0]
	assert.Equal(t, 2, day.HypoEvents)
	assert.Equal(t, 1, day.HyperEvents)
	assert.InDelta(t, 95.0, day.AvgGlucose, 1e-9)
	assert.InDelta(t, 190.0, day.PeakGlucose, 1e-9)
}

func TestTimeInRangeSumsToHundred(t *testing.T) {
	rec := get(t, seededServer(t), "/participant-time-in-ranges?pids=p01,p02")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []aggregate.TimeInRange
	decodeData(t, rec, &rows)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.InDelta(t, 100.0, r.VeryLow+r.Low+r.Target+r.High+r.VeryHigh, 1e-6, r.PID)
	}
}

func TestFileMetadataNormalized(t *testing.T) {
	rec := get(t, seededServer(t), "/file-metadata")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []aggregate.FileSummary
	decodeData(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "p01.cwa", rows[0].FileName)
	assert.Equal(t, "Asia/Karachi", rows[0].Timezone)
	assert.Equal(t, "2024-01-03 08:00:00", rows[0].StartTime)
	assert.InDelta(t, 1.0, rows[0].FileSizeMB, 1e-9)
}

func TestBoxPlotSingleParticipant(t *testing.T) {
	rec := get(t, seededServer(t), "/wear-time-boxplot")
	require.Equal(t, http.StatusOK, rec.Code)

	var plot aggregate.BoxPlot
	decodeData(t, rec, &plot)
	assert.Equal(t, 6.0, plot.Min)
	assert.Equal(t, 6.0, plot.Max)
	assert.Equal(t, 6.0, plot.Median)
}

func TestHourlyGlucose(t *testing.T) {
	rec := get(t, seededServer(t), "/participant/p01/hourly-glucose/2024-01-03")
	require.Equal(t, http.StatusOK, rec.Code)

	var hg aggregate.HourlyGlucose
	decodeData(t, rec, &hg)
	assert.Len(t, hg.CGM, 4)
	assert.Equal(t, models.StatusHypo, hg.CGM[0].Status)
	assert.Len(t, hg.FoodLog, 1)
}

func TestNamedMetricDispatch(t *testing.T) {
	h := seededServer(t)

	rec := get(t, h, "/metrics/days-worn")
	require.Equal(t, http.StatusOK, rec.Code)
	var days []aggregate.ParticipantDays
	decodeData(t, rec, &days)
	assert.Len(t, days, 2)

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog []aggregate.MetricInfo
	decodeData(t, rec, &catalog)
	assert.NotEmpty(t, catalog)
}

func TestParticipantTrends(t *testing.T) {
	h := seededServer(t)

	body := bytes.NewBufferString(`{"pids": ["p01"]}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/participant-trends", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var trends map[string]aggregate.Trend
	decodeData(t, rec, &trends)
	assert.Equal(t, []string{"2024-01-03", "2024-01-04"}, trends["p01"].Dates)
	assert.Equal(t, []float64{20, 22}, trends["p01"].WearTimes)
}

func TestErrorMapping(t *testing.T) {
	h := seededServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown metric", http.MethodGet, "/metrics/nope", "", http.StatusNotFound},
		{"bad date filter", http.MethodGet, "/cgm-metrics?from=yesterday", "", http.StatusBadRequest},
		{"no data for participant", http.MethodGet, "/participant/p99", "", http.StatusNotFound},
		{"bad trace date", http.MethodGet, "/participant/p01/activity-sleep-trace?date=03/01/2024", "", http.StatusBadRequest},
		{"missing trace date", http.MethodGet, "/participant/p01/activity-sleep-trace", "", http.StatusBadRequest},
		{"empty trends list", http.MethodPost, "/participant-trends", `{"pids": []}`, http.StatusBadRequest},
		{"malformed trends body", http.MethodPost, "/participant-trends", `{`, http.StatusBadRequest},
		{"per-participant metric without pid", http.MethodGet, "/metrics/sleep-data", "", http.StatusBadRequest},
		{"no route", http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestStatusForSourceError(t *testing.T) {
	err := &aggregate.DataSourceError{Op: "list", Err: errors.New("disk gone")}
	status, _ := StatusFor(err)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestStatusForStoredRowError(t *testing.T) {
	err := &aggregate.StoredRowError{
		Table: "file_summary",
		PID:   "p01",
		Row:   "p01.cwa",
		Err:   &aggregate.MalformedTimestampError{Value: "yesterday", Reason: "bad"},
	}
	status, msg := StatusFor(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", msg)

	status, _ = StatusFor(&aggregate.MalformedTimestampError{Value: "yesterday"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCorruptStoredRowReportsContext(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "workwell.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.InsertBatch(context.Background(), &storage.Batch{
		ID:   "corrupt",
		Kind: "test",
		FileMeta: []models.FileMetadata{
			{PID: "p07", FileName: "/raw/p07.cwa", StartTime: "yesterday", EndTime: "2024-01-10T08:00:00+05:00[Asia/Karachi]"},
		},
	})
	require.NoError(t, err)
	h := New(aggregate.NewEngine(db), zap.NewNop()).NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/file-metadata", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "p07")
	assert.Contains(t, body.Detail, "/raw/p07.cwa")
	assert.Contains(t, body.Detail, "yesterday")
	assert.Contains(t, body.Detail, "req-42")
}

func TestDateTimeFilterBounds(t *testing.T) {
	rec := get(t, seededServer(t), "/glucose-events?from=2024-01-03%2000:00:00&to=2024-01-03")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report aggregate.EventReport
	decodeData(t, rec, &report)
	require.Len(t, report.Days, 1)
	assert.Equal(t, "p01", report.Days[0].PID)
}

func TestTimeInRangeMissingParticipant(t *testing.T) {
	rec := get(t, seededServer(t), "/participant-time-in-ranges?pids=p01,p99")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "p99")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "workwell.db"))
	require.NoError(t, err)
	defer db.Close()

	srv := New(aggregate.NewEngine(db), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
