// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jcodagnone/trackeval/spatial"
	"github.com/uber/h3-go/v4"
)

// Metric names.
const (
	MetricDistance   = "distance"
	MetricAlongTrack = "along_track"
	MetricCrossTrack = "cross_track"
)

// CSVHeader is the first line of the tabular export.
const CSVHeader = "id;predicted_location;context;distance_error;along_track_error;cross_track_error\n"

// Metrics maps a metric name to its error in meters.
type Metrics map[string]float64

// Result is the report record of one evaluated prediction.
type Result struct {
	ID                string        `json:"id"`
	PredictedLocation spatial.Point `json:"predicted_location"`
	Context           string        `json:"context"`
	Errors            Metrics       `json:"errors"`
	// Cell is the H3 cell of the true position, zero when not tagged.
	Cell h3.Cell `json:"h3_cell,omitempty"`
}

// NewResult builds a result that owns a copy of errors.
func NewResult(id string, predicted spatial.Point, context string, errors Metrics) *Result {
	own := make(Metrics, len(errors))
	for k, v := range errors {
		own[k] = v
	}

	return &Result{
		ID:                id,
		PredictedLocation: predicted,
		Context:           context,
		Errors:            own,
	}
}

// Metric returns the named metric.
func (r *Result) Metric(name string) (float64, error) {
	v, ok := r.Errors[name]
	if !ok {
		return 0, &MissingMetricError{ID: r.ID, Metric: name}
	}

	return v, nil
}

func (r *Result) String() string {
	return fmt.Sprintf("%s (%s): %s - Errors: %v", r.ID, r.Context, r.PredictedLocation, map[string]float64(r.Errors))
}

// ToCSV renders the result as one semicolon separated row, newline included.
func (r *Result) ToCSV() (string, error) {
	fields := make([]string, 0, 3)

	for _, name := range []string{MetricDistance, MetricAlongTrack, MetricCrossTrack} {
		v, err := r.Metric(name)
		if err != nil {
			return "", err
		}

		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	}

	return fmt.Sprintf("%s;%s;%s;%s;%s;%s\n",
		r.ID, r.PredictedLocation, r.Context, fields[0], fields[1], fields[2]), nil
}

// CSVWriter writes results as CSV rows, emitting the header before the
// first row.
type CSVWriter struct {
	w             io.Writer
	headerWritten bool
}

// NewCSVWriter returns a writer over w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// WriteHeader writes the header if it has not been written yet.
func (c *CSVWriter) WriteHeader() error {
	if c.headerWritten {
		return nil
	}

	if _, err := io.WriteString(c.w, CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	c.headerWritten = true

	return nil
}

// Write appends one row.
func (c *CSVWriter) Write(r *Result) error {
	row, err := r.ToCSV()
	if err != nil {
		return err
	}

	if err := c.WriteHeader(); err != nil {
		return err
	}

	if _, err := io.WriteString(c.w, row); err != nil {
		return fmt.Errorf("writing csv row %s: %w", r.ID, err)
	}

	return nil
}
