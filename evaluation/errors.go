// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"errors"
	"fmt"
)

// DegenerateTrajectoryError is returned when a trajectory has too few
// vertices to project a point onto it.
type DegenerateTrajectoryError struct {
	Vertices int
}

func (e *DegenerateTrajectoryError) Error() string {
	return fmt.Sprintf("degenerate trajectory: %d vertices, at least 2 required", e.Vertices)
}

// MissingMetricError is returned when a result does not hold a metric.
type MissingMetricError struct {
	ID     string
	Metric string
}

func (e *MissingMetricError) Error() string {
	return fmt.Sprintf("result %q has no %q metric", e.ID, e.Metric)
}

// IsDegenerateTrajectoryError reports whether err is caused by a trajectory
// with fewer than two vertices.
func IsDegenerateTrajectoryError(err error) bool {
	var degErr *DegenerateTrajectoryError

	return errors.As(err, &degErr)
}

// IsMissingMetricError reports whether err is caused by an absent metric.
func IsMissingMetricError(err error) bool {
	var missing *MissingMetricError

	return errors.As(err, &missing)
}
