// ABOUTME: Read-only HTTP API over the aggregation engine.
// ABOUTME: Routes mirror the dashboard endpoints; every response is JSON.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
)

// Server serves cohort metrics over HTTP.
type Server struct {
	engine *aggregate.Engine
	logger *zap.Logger
}

// New creates a server over engine.
func New(engine *aggregate.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, logger: logger}
}

// NewRouter returns the router with every route registered.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withRequestID, s.withLogging, withCORS)

	get := func(path string, h http.HandlerFunc) {
		r.HandleFunc(path, h).Methods(http.MethodGet, http.MethodOptions)
	}

	get("/health", s.handleHealth)
	get("/metrics", s.handleMetricCatalog)
	get("/metrics/{name}", s.handleMetric)

	// cohort
	get("/pids", s.handleParticipants)
	get("/days-worn", cohort(s, (*aggregate.Engine).DaysWorn))
	get("/cgm-metrics", cohort(s, (*aggregate.Engine).CGMMetrics))
	get("/participant-time-in-ranges", cohort(s, (*aggregate.Engine).TimeInRanges))
	get("/qa-dashboard", cohort(s, (*aggregate.Engine).QADashboard))
	get("/glucose-events", cohort(s, (*aggregate.Engine).GlucoseEvents))
	get("/glucose-distribution", cohort(s, (*aggregate.Engine).GlucoseDistribution))
	get("/qc-dashboard", cohort(s, (*aggregate.Engine).FileSummaries))
	get("/file-metadata", cohort(s, (*aggregate.Engine).FileSummaries))
	get("/qc-metrics", cohort(s, (*aggregate.Engine).QCMetrics))
	get("/wear-vs-nonwear", cohort(s, (*aggregate.Engine).WearVsNonWear))
	get("/calibration-check", cohort(s, (*aggregate.Engine).CalibrationCheck))
	get("/activity", cohort(s, (*aggregate.Engine).ActivityTidy))
	get("/wear-time-boxplot", cohort(s, (*aggregate.Engine).WearTimeBoxPlot))
	get("/avg-sleep-boxplot", cohort(s, (*aggregate.Engine).AvgSleepBoxPlot))
	get("/file-size-boxplot", cohort(s, (*aggregate.Engine).FileSizeBoxPlot))
	get("/cohort-report", cohort(s, (*aggregate.Engine).CohortReport))
	r.HandleFunc("/participant-trends", s.handleParticipantTrends).Methods(http.MethodPost, http.MethodOptions)

	// per participant
	get("/participant/{pid}", participant(s, (*aggregate.Engine).ParticipantSummary))
	get("/participant/{pid}/daily-avg-glucose", participant(s, (*aggregate.Engine).DailyAverageGlucose))
	get("/participant/{pid}/hourly-glucose/{date}", s.handleHourlyGlucose)
	get("/participant/{pid}/activity", participant(s, (*aggregate.Engine).ParticipantActivity))
	get("/participant/{pid}/sleep-data", participant(s, (*aggregate.Engine).SleepData))
	get("/participant/{pid}/sleep-hours-efficiency", participant(s, (*aggregate.Engine).SleepData))
	get("/participant/{pid}/dates", participant(s, (*aggregate.Engine).ParticipantDates))
	get("/participant/{pid}/wear-time", participant(s, (*aggregate.Engine).WearTimeSeries))
	get("/participant/{pid}/activity-sleep-trace", s.handleActivityTrace)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "no such endpoint")
	})
	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
