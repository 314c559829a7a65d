// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/trackeval/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetrics() Metrics {
	return Metrics{MetricDistance: 1.5, MetricAlongTrack: 2, MetricCrossTrack: 0.25}
}

func TestCSVHeader(t *testing.T) {
	assert.Equal(t, "id;predicted_location;context;distance_error;along_track_error;cross_track_error\n", CSVHeader)
}

func TestResultToCSV(t *testing.T) {
	r := NewResult("a1", spatial.NewPoint(0.001, 1), "ctx", sampleMetrics())

	row, err := r.ToCSV()
	require.NoError(t, err)
	assert.Equal(t, "a1;POINT(0.001 1);ctx;1.5;2;0.25\n", row)
	assert.Equal(t, 6, len(strings.Split(strings.TrimSuffix(row, "\n"), ";")))
}

func TestResultToCSVKeepsPrecision(t *testing.T) {
	r := NewResult("x", spatial.NewPoint(-56.16451234, -34.90114567), "", sampleMetrics())

	row, err := r.ToCSV()
	require.NoError(t, err)
	assert.Equal(t, "x;POINT(-56.16451234 -34.90114567);;1.5;2;0.25\n", row)
}

func TestResultString(t *testing.T) {
	r := NewResult("a1", spatial.NewPoint(0.001, 1), "ctx", sampleMetrics())
	assert.Equal(t,
		"a1 (ctx): POINT(0.001 1) - Errors: map[along_track:2 cross_track:0.25 distance:1.5]",
		r.String(),
	)
}

func TestNewResultOwnsItsMetrics(t *testing.T) {
	m := sampleMetrics()
	r := NewResult("a1", spatial.NewPoint(0, 0), "", m)

	m[MetricDistance] = 99
	assert.InDelta(t, 1.5, r.Errors[MetricDistance], 0)

	first := NewResult("x", spatial.NewPoint(0, 0), "", nil)
	second := NewResult("y", spatial.NewPoint(0, 0), "", nil)
	require.NotNil(t, first.Errors)

	first.Errors[MetricDistance] = 1
	assert.Empty(t, second.Errors)
}

func TestResultMissingMetric(t *testing.T) {
	r := NewResult("empty", spatial.NewPoint(0, 0), "", nil)

	_, err := r.Metric(MetricAlongTrack)
	require.Error(t, err)
	assert.True(t, IsMissingMetricError(err))
	assert.Equal(t, `result "empty" has no "along_track" metric`, err.Error())

	_, err = r.ToCSV()
	assert.True(t, IsMissingMetricError(err))

	v, err := NewResult("full", spatial.NewPoint(0, 0), "", sampleMetrics()).Metric(MetricCrossTrack)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 0)
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.Write(NewResult("a", spatial.NewPoint(1, 2), "x", sampleMetrics())))
	require.NoError(t, w.Write(NewResult("b", spatial.NewPoint(3, 4), "y", Metrics{
		MetricDistance: 10, MetricAlongTrack: 20, MetricCrossTrack: 30,
	})))
	require.NoError(t, w.WriteHeader())

	expected := CSVHeader +
		"a;POINT(1 2);x;1.5;2;0.25\n" +
		"b;POINT(3 4);y;10;20;30\n"
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}

	// A row that cannot be rendered writes nothing, not even the header.
	var empty bytes.Buffer
	assert.Error(t, NewCSVWriter(&empty).Write(NewResult("c", spatial.NewPoint(0, 0), "", nil)))
	assert.Empty(t, empty.String())
}
