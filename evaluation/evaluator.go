// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package evaluation scores a predicted location against the trajectory the
// object actually followed.
package evaluation

import (
	"fmt"
	"math"

	"github.com/jcodagnone/trackeval/projection"
	"github.com/jcodagnone/trackeval/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// GroundTruthSample pairs the true future position with the path leading to it.
type GroundTruthSample interface {
	FuturePos() spatial.Point
	FutureTraj() spatial.Trajectory
}

// Sample is the plain GroundTruthSample.
type Sample struct {
	Truth      spatial.Point      `json:"truth"`
	Trajectory spatial.Trajectory `json:"trajectory"`
}

// FuturePos implements GroundTruthSample.
func (s Sample) FuturePos() spatial.Point { return s.Truth }

// FutureTraj implements GroundTruthSample.
func (s Sample) FutureTraj() spatial.Trajectory { return s.Trajectory }

// DistanceFunc measures the distance in meters between two geographic points.
type DistanceFunc func(a, b spatial.Point) float64

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithDistance replaces the spherical distance used by every metric. A nil fn
// keeps the default.
func WithDistance(fn DistanceFunc) Option {
	return func(e *Evaluator) {
		if fn != nil {
			e.distance = fn
		}
	}
}

// Evaluator holds one prediction, its ground truth and the point of the true
// trajectory nearest to the prediction. It is immutable once built.
type Evaluator struct {
	truth      spatial.Point
	trajectory spatial.Trajectory
	prediction spatial.Point
	crs        string
	distance   DistanceFunc

	projected spatial.Point
	arcLength float64
}

// NewEvaluator projects prediction onto the sample trajectory using proj for
// the planar geometry.
func NewEvaluator(
	sample GroundTruthSample,
	prediction spatial.Point,
	proj projection.Projector,
	opts ...Option,
) (*Evaluator, error) {
	e := &Evaluator{
		truth:      sample.FuturePos(),
		trajectory: sample.FutureTraj(),
		prediction: prediction,
		crs:        proj.Code(),
		distance:   spatial.Haversine,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.trajectory) < 2 {
		return nil, &DegenerateTrajectoryError{Vertices: len(e.trajectory)}
	}

	if _, err := proj.ToProjected(e.truth); err != nil {
		return nil, fmt.Errorf("projecting truth: %w", err)
	}

	if err := e.projectPrediction(proj); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Evaluator) projectPrediction(proj projection.Projector) error {
	line := make(orb.LineString, len(e.trajectory))
	for i, vertex := range e.trajectory {
		p, err := proj.ToProjected(vertex)
		if err != nil {
			return fmt.Errorf("projecting trajectory vertex %d: %w", i, err)
		}

		line[i] = p
	}

	p, err := proj.ToProjected(e.prediction)
	if err != nil {
		return fmt.Errorf("projecting prediction: %w", err)
	}

	nearest, s := nearestOnLine(line, p)

	back, err := proj.ToGeographic(nearest)
	if err != nil {
		return fmt.Errorf("projecting back nearest point: %w", err)
	}

	e.projected = back
	e.arcLength = s

	return nil
}

// nearestOnLine returns the point of line closest to p and its arc-length
// position. Equidistant candidates resolve to the earliest one along the line.
func nearestOnLine(line orb.LineString, p orb.Point) (orb.Point, float64) {
	best := math.Inf(1)
	nearest := line[0]
	arcLength := 0.0
	offset := 0.0

	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		q, frac := nearestOnSegment(a, b, p)
		segment := planar.Distance(a, b)

		if d := planar.DistanceSquared(q, p); d < best {
			best = d
			nearest = q
			arcLength = offset + frac*segment
		}

		offset += segment
	}

	return nearest, arcLength
}

// nearestOnSegment clamps the orthogonal projection of p onto ab to the
// segment and returns it with its fraction along the segment.
func nearestOnSegment(a, b, p orb.Point) (orb.Point, float64) {
	dx, dy := b[0]-a[0], b[1]-a[1]

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, 0
	}

	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return orb.Point{a[0] + t*dx, a[1] + t*dy}, t
}

// Truth returns the true future position.
func (e *Evaluator) Truth() spatial.Point { return e.truth }

// Prediction returns the evaluated prediction.
func (e *Evaluator) Prediction() spatial.Point { return e.prediction }

// CRS returns the code of the planar system used for the projection.
func (e *Evaluator) CRS() string { return e.crs }

// ProjectedPrediction returns the point of the true trajectory nearest to the
// prediction, in geographic coordinates.
func (e *Evaluator) ProjectedPrediction() spatial.Point { return e.projected }

// ArcLength returns the position of the projected prediction along the
// trajectory, in planar units of the projection.
func (e *Evaluator) ArcLength() float64 { return e.arcLength }

// DistanceError is the raw miss distance between truth and prediction.
func (e *Evaluator) DistanceError() float64 {
	return e.distance(e.truth, e.prediction)
}

// CrossTrackError is how far the prediction lies from the true trajectory.
func (e *Evaluator) CrossTrackError() float64 {
	return e.distance(e.prediction, e.projected)
}

// AlongTrackError is the distance between the truth and the projected
// prediction. It approximates progress error with a straight-line gap, not an
// arc-length difference.
func (e *Evaluator) AlongTrackError() float64 {
	return e.distance(e.truth, e.projected)
}

// Errors returns all three metrics.
func (e *Evaluator) Errors() Metrics {
	return Metrics{
		MetricDistance:   e.DistanceError(),
		MetricCrossTrack: e.CrossTrackError(),
		MetricAlongTrack: e.AlongTrackError(),
	}
}

// Result packages the metrics into a report record.
func (e *Evaluator) Result(id, context string) *Result {
	return NewResult(id, e.prediction, context, e.Errors())
}
