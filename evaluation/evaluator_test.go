// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"errors"
	"math"
	"testing"

	"github.com/jcodagnone/trackeval/projection"
	"github.com/jcodagnone/trackeval/spatial"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// straightNorth is the path (0,0) -> (0,1) -> (0,2) in lon/lat degrees.
var straightNorth = spatial.Trajectory{
	spatial.NewPoint(0, 0),
	spatial.NewPoint(0, 1),
	spatial.NewPoint(0, 2),
}

// avenida is a stretch of a coastal avenue, lon/lat.
var avenida = spatial.Trajectory{
	spatial.NewPoint(-56.1900, -34.9100),
	spatial.NewPoint(-56.1700, -34.9150),
	spatial.NewPoint(-56.1500, -34.9120),
	spatial.NewPoint(-56.1350, -34.9050),
}

func TestEvaluatorExampleScenario(t *testing.T) {
	sample := Sample{Truth: spatial.NewPoint(0, 2), Trajectory: straightNorth}
	prediction := spatial.NewPoint(0.001, 1)

	e, err := NewEvaluator(sample, prediction, projection.MustNew("epsg:4326"))
	require.NoError(t, err)

	projected := e.ProjectedPrediction()
	assert.InDelta(t, 0, projected.Lng, 1e-12)
	assert.InDelta(t, 1, projected.Lat, 1e-12)
	assert.InDelta(t, 1, e.ArcLength(), 1e-12)

	assert.InDelta(t, spatial.Haversine(prediction, spatial.NewPoint(0, 1)), e.CrossTrackError(), 1e-6)
	assert.InDelta(t, spatial.Haversine(spatial.NewPoint(0, 2), spatial.NewPoint(0, 1)), e.AlongTrackError(), 1e-6)
	assert.InDelta(t, spatial.Haversine(spatial.NewPoint(0, 2), prediction), e.DistanceError(), 1e-6)

	// about 111 m, 111 km and 111 km.
	assert.InDelta(t, 111.2, e.CrossTrackError(), 0.5)
	assert.InDelta(t, 111195, e.AlongTrackError(), 10)
}

func TestEvaluatorDegenerateTrajectory(t *testing.T) {
	for _, traj := range []spatial.Trajectory{nil, {spatial.NewPoint(0, 0)}} {
		sample := Sample{Truth: spatial.NewPoint(0, 0), Trajectory: traj}

		e, err := NewEvaluator(sample, spatial.NewPoint(0, 0), projection.MustNew("epsg:3857"))
		require.Error(t, err)
		assert.Nil(t, e)
		assert.True(t, IsDegenerateTrajectoryError(err))

		var degErr *DegenerateTrajectoryError
		require.ErrorAs(t, err, &degErr)
		assert.Equal(t, len(traj), degErr.Vertices)
	}
}

func TestEvaluatorZeroError(t *testing.T) {
	for _, code := range []string{"epsg:4326", "epsg:3857", "epsg:32721"} {
		t.Run(code, func(t *testing.T) {
			truth := avenida[2]
			sample := Sample{Truth: truth, Trajectory: avenida}

			e, err := NewEvaluator(sample, truth, projection.MustNew(code))
			require.NoError(t, err)

			assert.Less(t, e.DistanceError(), 1.0)
			assert.Less(t, e.CrossTrackError(), 1.0)
			assert.Less(t, e.AlongTrackError(), 1.0)
		})
	}
}

func TestEvaluatorPointOnSegment(t *testing.T) {
	// Midpoint of the first straight segment.
	onPath := spatial.NewPoint(0, 0.5)
	sample := Sample{Truth: spatial.NewPoint(0, 2), Trajectory: straightNorth}

	e, err := NewEvaluator(sample, onPath, projection.MustNew("epsg:4326"))
	require.NoError(t, err)

	assert.InDelta(t, onPath.Lat, e.ProjectedPrediction().Lat, 1e-12)
	assert.InDelta(t, onPath.Lng, e.ProjectedPrediction().Lng, 1e-12)
	assert.InDelta(t, 0, e.CrossTrackError(), 1e-6)
	assert.InDelta(t, 0.5, e.ArcLength(), 1e-12)
}

func TestEvaluatorTieBreaksToEarlierSegment(t *testing.T) {
	// A V shaped path; (0,1) is equidistant from both arms.
	v := spatial.Trajectory{
		spatial.NewPoint(-1, 1),
		spatial.NewPoint(0, 0),
		spatial.NewPoint(1, 1),
	}
	sample := Sample{Truth: spatial.NewPoint(1, 1), Trajectory: v}

	e, err := NewEvaluator(sample, spatial.NewPoint(0, 1), projection.MustNew("epsg:4326"))
	require.NoError(t, err)

	assert.InDelta(t, -0.5, e.ProjectedPrediction().Lng, 1e-12)
	assert.InDelta(t, 0.5, e.ProjectedPrediction().Lat, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, e.ArcLength(), 1e-12)
}

func TestEvaluatorClampsToEndpoints(t *testing.T) {
	sample := Sample{Truth: spatial.NewPoint(0, 2), Trajectory: straightNorth}

	beyond, err := NewEvaluator(sample, spatial.NewPoint(0.2, 3), projection.MustNew("epsg:4326"))
	require.NoError(t, err)
	assert.InDelta(t, 2, beyond.ProjectedPrediction().Lat, 1e-12)
	assert.InDelta(t, 0, beyond.ProjectedPrediction().Lng, 1e-12)
	assert.InDelta(t, 2, beyond.ArcLength(), 1e-12)

	before, err := NewEvaluator(sample, spatial.NewPoint(-0.1, -1), projection.MustNew("epsg:4326"))
	require.NoError(t, err)
	assert.InDelta(t, 0, before.ProjectedPrediction().Lat, 1e-12)
	assert.InDelta(t, 0, before.ArcLength(), 1e-12)
}

func TestEvaluatorZeroLengthSegment(t *testing.T) {
	traj := spatial.Trajectory{spatial.NewPoint(0, 0), spatial.NewPoint(0, 0), spatial.NewPoint(0, 1)}
	sample := Sample{Truth: spatial.NewPoint(0, 1), Trajectory: traj}

	e, err := NewEvaluator(sample, spatial.NewPoint(0.01, 0.5), projection.MustNew("epsg:4326"))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, e.ProjectedPrediction().Lat, 1e-12)
	assert.InDelta(t, 0, e.ProjectedPrediction().Lng, 1e-12)
}

func TestEvaluatorProjectionErrors(t *testing.T) {
	mercator := projection.MustNew("epsg:3857")

	polar := Sample{Truth: spatial.NewPoint(0, 1), Trajectory: spatial.Trajectory{
		spatial.NewPoint(0, 0), spatial.NewPoint(0, 88),
	}}
	_, err := NewEvaluator(polar, spatial.NewPoint(0, 1), mercator)
	require.Error(t, err)
	assert.True(t, projection.IsOutOfDomainError(err))

	sample := Sample{Truth: spatial.NewPoint(0, 1), Trajectory: straightNorth}
	_, err = NewEvaluator(sample, spatial.NewPoint(0, 89), mercator)
	assert.True(t, projection.IsProjectionError(err))

	badTruth := Sample{Truth: spatial.NewPoint(0, 95), Trajectory: straightNorth}
	_, err = NewEvaluator(badTruth, spatial.NewPoint(0, 1), mercator)
	assert.True(t, projection.IsProjectionError(err))
}

func TestEvaluatorWithDistance(t *testing.T) {
	var calls int
	manhattan := func(a, b spatial.Point) float64 {
		calls++

		return math.Abs(a.Lat-b.Lat) + math.Abs(a.Lng-b.Lng)
	}

	sample := Sample{Truth: spatial.NewPoint(0, 2), Trajectory: straightNorth}

	e, err := NewEvaluator(sample, spatial.NewPoint(0.25, 1), projection.MustNew("epsg:4326"), WithDistance(manhattan))
	require.NoError(t, err)

	errs := e.Errors()
	assert.Equal(t, 3, calls)
	assert.InDelta(t, 1.25, errs[MetricDistance], 1e-12)
	assert.InDelta(t, 0.25, errs[MetricCrossTrack], 1e-12)
	assert.InDelta(t, 1.0, errs[MetricAlongTrack], 1e-12)

	// Accessors are stable across calls.
	assert.Equal(t, errs, e.Errors())
}

func TestEvaluatorWithNilDistance(t *testing.T) {
	sample := Sample{Truth: spatial.NewPoint(0, 2), Trajectory: straightNorth}
	prediction := spatial.NewPoint(0.001, 1)

	e, err := NewEvaluator(sample, prediction, projection.MustNew("epsg:4326"), WithDistance(nil))
	require.NoError(t, err)

	assert.NotPanics(t, func() { e.Errors() })
	assert.InDelta(t, spatial.Haversine(sample.Truth, prediction), e.DistanceError(), 1e-9)
}

// failingProjector wraps a projector and rejects one point.
type failingProjector struct {
	projection.Projector
	reject spatial.Point
}

var errRejected = errors.New("rejected")

func (f failingProjector) ToProjected(p spatial.Point) (orb.Point, error) {
	if p == f.reject {
		return orb.Point{}, errRejected
	}

	return f.Projector.ToProjected(p)
}

func TestEvaluatorPropagatesProjectorErrors(t *testing.T) {
	proj := failingProjector{Projector: projection.MustNew("epsg:4326"), reject: straightNorth[1]}
	sample := Sample{Truth: spatial.NewPoint(0, 2), Trajectory: straightNorth}

	_, err := NewEvaluator(sample, spatial.NewPoint(0, 1.5), proj)
	require.ErrorIs(t, err, errRejected)
	assert.Contains(t, err.Error(), "vertex 1")
}

func TestEvaluatorResult(t *testing.T) {
	sample := Sample{Truth: avenida[3], Trajectory: avenida}
	prediction := spatial.NewPoint(-56.16, -34.92)

	e, err := NewEvaluator(sample, prediction, projection.MustNew("epsg:3857"))
	require.NoError(t, err)
	assert.Equal(t, "epsg:3857", e.CRS())
	assert.Equal(t, prediction, e.Prediction())
	assert.Equal(t, avenida[3], e.Truth())

	r := e.Result("bus-12", "line=121")
	assert.Equal(t, "bus-12", r.ID)
	assert.Equal(t, "line=121", r.Context)
	assert.Equal(t, prediction, r.PredictedLocation)
	assert.Len(t, r.Errors, 3)
	assert.InDelta(t, e.DistanceError(), r.Errors[MetricDistance], 1e-9)
	assert.Greater(t, r.Errors[MetricCrossTrack], 0.0)
	assert.LessOrEqual(t, r.Errors[MetricCrossTrack], r.Errors[MetricDistance]+1)
}
