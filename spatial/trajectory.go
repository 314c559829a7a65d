// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-polyline"
)

// ErrEmptyPolyline is returned when decoding an empty encoded polyline.
var ErrEmptyPolyline = errors.New("spatial: encoded polyline is empty")

// Trajectory is the ordered sequence of points an object follows.
type Trajectory []Point

// Len returns the number of vertices.
func (t Trajectory) Len() int {
	return len(t)
}

// Validate checks that every vertex holds valid geographic coordinates.
func (t Trajectory) Validate() error {
	for i, p := range t {
		if !p.Valid() {
			return fmt.Errorf("spatial: invalid vertex %d: %s", i, p)
		}
	}

	return nil
}

// Length returns the great-circle length of the trajectory in meters.
func (t Trajectory) Length() float64 {
	total := 0.0
	for i := 1; i < len(t); i++ {
		total += t[i-1].HaversineDistance(&t[i])
	}

	return total
}

// DecodeTrajectory decodes a Google encoded polyline into a trajectory.
func DecodeTrajectory(encoded string) (Trajectory, error) {
	if encoded == "" {
		return nil, ErrEmptyPolyline
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("spatial: decoding polyline: %w", err)
	}

	if len(rest) > 0 {
		return nil, fmt.Errorf("spatial: trailing data after polyline: %q", rest)
	}

	traj := make(Trajectory, len(coords))
	for i, c := range coords {
		traj[i] = Point{Lat: c[0], Lng: c[1]}
	}

	if err := traj.Validate(); err != nil {
		return nil, err
	}

	return traj, nil
}

// EncodeTrajectory renders the trajectory as a Google encoded polyline.
func EncodeTrajectory(t Trajectory) string {
	coords := make([][]float64, len(t))
	for i, p := range t {
		coords[i] = []float64{p.Lat, p.Lng}
	}

	return string(polyline.EncodeCoords(coords))
}
