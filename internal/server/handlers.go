// ABOUTME: HTTP handlers adapting requests to engine calls.
// ABOUTME: Filters come from pid/from/to query params; participants from the path.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/harperreed/workwell/internal/aggregate"
)

// cohort adapts an engine method taking a Filter into a handler.
func cohort[T any](s *Server, fn func(*aggregate.Engine, context.Context, aggregate.Filter) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := filterFromQuery(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		v, err := fn(s.engine, r.Context(), f)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, v)
	}
}

// participant adapts an engine method taking a pid into a handler.
func participant[T any](s *Server, fn func(*aggregate.Engine, context.Context, string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(s.engine, r.Context(), mux.Vars(r)["pid"])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, v)
	}
}

// filterFromQuery reads repeatable pid (or comma separated pids) and the
// from/to date bounds.
func filterFromQuery(r *http.Request) (aggregate.Filter, error) {
	q := r.URL.Query()
	var f aggregate.Filter
	for _, v := range append(q["pid"], q["pids"]...) {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				f.PIDs = append(f.PIDs, p)
			}
		}
	}
	f.From = q.Get("from")
	f.To = q.Get("to")
	return f.Normalize()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetricCatalog(w http.ResponseWriter, _ *http.Request) {
	writeData(w, aggregate.Metrics())
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.engine.Compute(r.Context(), mux.Vars(r)["name"], f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, v)
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	pids, err := s.engine.Participants(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, pids)
}

func (s *Server) handleHourlyGlucose(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, err := s.engine.HourlyGlucose(r.Context(), vars["pid"], vars["date"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, v)
}

func (s *Server) handleActivityTrace(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "missing date parameter")
		return
	}
	v, err := s.engine.ActivityTrace(r.Context(), mux.Vars(r)["pid"], date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, v)
}

// trendsRequest is the POST body for participant trends.
type trendsRequest struct {
	PIDs []string `json:"pids"`
}

func (s *Server) handleParticipantTrends(w http.ResponseWriter, r *http.Request) {
	var req trendsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "body must be {\"pids\": [...]}")
		return
	}
	v, err := s.engine.ParticipantTrends(r.Context(), req.PIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, v)
}
