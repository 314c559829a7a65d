// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jcodagnone/trackeval/spatial"
)

// maxLineSize bounds a single JSON line; long trajectories make big lines.
const maxLineSize = 16 * 1024 * 1024

// Item is one prediction to evaluate together with its ground truth.
// The trajectory may be given as a list of points or as a Google encoded
// polyline.
type Item struct {
	ID         string             `json:"id"`
	Context    string             `json:"context"`
	Prediction spatial.Point      `json:"prediction"`
	Truth      spatial.Point      `json:"truth"`
	Trajectory spatial.Trajectory `json:"trajectory,omitempty"`
	Polyline   string             `json:"polyline,omitempty"`
}

// Sample returns the ground truth of the item, decoding the polyline when no
// explicit trajectory is present.
func (it *Item) Sample() (Sample, error) {
	traj := it.Trajectory
	if len(traj) == 0 && it.Polyline != "" {
		decoded, err := spatial.DecodeTrajectory(it.Polyline)
		if err != nil {
			return Sample{}, fmt.Errorf("item %s: %w", it.ID, err)
		}

		traj = decoded
	}

	return Sample{Truth: it.Truth, Trajectory: traj}, nil
}

// ReadItems parses JSON Lines input, one item per line. Blank lines are
// skipped; items without an id get their line number.
func ReadItems(r io.Reader) ([]*Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var items []*Item

	line := 0
	for scanner.Scan() {
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		item := &Item{}
		if err := json.Unmarshal(data, item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if item.ID == "" {
			item.ID = fmt.Sprintf("%d", line)
		}

		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	return items, nil
}
