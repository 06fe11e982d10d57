// ABOUTME: Error taxonomy for the aggregation engine.
// ABOUTME: Every error names the metric, participant, or filter it applies to.
package aggregate

import (
	"fmt"
)

// EmptyInputError is returned when there is nothing to aggregate.
type EmptyInputError struct {
	Metric string
}

func (e *EmptyInputError) Error() string {
	if e.Metric == "" {
		return "empty input: no values to aggregate"
	}
	return fmt.Sprintf("empty input: no values to aggregate for %s", e.Metric)
}

// NoDataError is returned when a valid request matched zero rows.
type NoDataError struct {
	Metric string
	PID    string
	Filter string
}

func (e *NoDataError) Error() string {
	msg := "no data"
	if e.Metric != "" {
		msg += " for " + e.Metric
	}
	if e.PID != "" {
		msg += " (participant " + e.PID + ")"
	}
	if e.Filter != "" {
		msg += " matching " + e.Filter
	}
	return msg
}

// MalformedTimestampError is returned when a date or time field cannot be parsed.
type MalformedTimestampError struct {
	Value  string
	Reason string
}

func (e *MalformedTimestampError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed timestamp %q", e.Value)
	}
	return fmt.Sprintf("malformed timestamp %q: %s", e.Value, e.Reason)
}

// DataSourceError wraps a failure of the underlying row source together with
// the participant and filter of the failed fetch.
type DataSourceError struct {
	Op     string
	PID    string
	Filter string
	Err    error
}

func (e *DataSourceError) Error() string {
	msg := "data source " + e.Op
	if e.PID != "" {
		msg += " (participant " + e.PID + ")"
	}
	if e.Filter != "" {
		msg += " matching " + e.Filter
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// sourceErr wraps err as a DataSourceError for a fetch narrowed by f, unless
// it already is one.
func sourceErr(op string, f Filter, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*DataSourceError); ok {
		return err
	}
	e := &DataSourceError{Op: op, Filter: f.String(), Err: err}
	if len(f.PIDs) == 1 {
		e.PID = f.PIDs[0]
	}
	return e
}

// StoredRowError is returned when a row already in the store cannot be
// interpreted. The request was fine; the data is not.
type StoredRowError struct {
	Table string
	PID   string
	Row   string
	Err   error
}

func (e *StoredRowError) Error() string {
	msg := "stored " + e.Table + " row"
	if e.Row != "" {
		msg += " " + e.Row
	}
	if e.PID != "" {
		msg += " (participant " + e.PID + ")"
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StoredRowError) Unwrap() error {
	return e.Err
}

// InvalidRequestError is returned when request parameters are unusable.
type InvalidRequestError struct {
	Metric string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	if e.Metric == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request for %s: %s", e.Metric, e.Reason)
}

// UnknownMetricError is returned by named dispatch for an unregistered name.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", e.Name)
}
