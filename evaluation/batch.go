// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/jcodagnone/trackeval/projection"
	"github.com/jcodagnone/trackeval/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/uber/h3-go/v4"
	"golang.org/x/sync/errgroup"
)

// Outcome is the evaluation of one item. Exactly one of Result and Err is set.
type Outcome struct {
	Item                *Item
	Result              *Result
	ProjectedPrediction spatial.Point
	Err                 error
}

// BatchMetrics counts the outcomes of a batch.
type BatchMetrics struct {
	Evaluated int
	Failed    int
}

// Batch evaluates many items independently of each other.
type Batch struct {
	Projector projection.Projector
	// Concurrency bounds the number of items evaluated at once, 0 means
	// the number of CPUs.
	Concurrency int
	// H3Resolution tags results with the H3 cell of the truth when > 0.
	H3Resolution int
	// Progress shows a progress bar when stderr is a terminal.
	Progress bool
	Options  []Option

	Metrics BatchMetrics
}

// Run evaluates items and returns their outcomes in input order. A failing
// item does not stop the others; only cancellation of ctx does.
func (b *Batch) Run(ctx context.Context, items []*Item) ([]Outcome, error) {
	outcomes := make([]Outcome, len(items))

	limit := b.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if b.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(items),
			progressbar.OptionSetDescription("Evaluating"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			outcomes[i] = b.evaluate(item)

			if bar != nil {
				mu.Lock()
				if err := bar.Add(1); err != nil {
					log.Printf("Progress bar update failed - %s", err)
				}
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, fmt.Errorf("batch interrupted: %w", err)
	}

	b.Metrics = BatchMetrics{}
	for _, o := range outcomes {
		if o.Err != nil {
			b.Metrics.Failed++
			log.Printf("Evaluation failed - %s: %s", o.Item.ID, o.Err)
		} else {
			b.Metrics.Evaluated++
		}
	}

	log.Printf("Evaluation complete - %d evaluated, %d failed", b.Metrics.Evaluated, b.Metrics.Failed)

	return outcomes, nil
}

func (b *Batch) evaluate(item *Item) Outcome {
	out := Outcome{Item: item}

	sample, err := item.Sample()
	if err != nil {
		out.Err = err

		return out
	}

	e, err := NewEvaluator(sample, item.Prediction, b.Projector, b.Options...)
	if err != nil {
		out.Err = fmt.Errorf("item %s: %w", item.ID, err)

		return out
	}

	result := e.Result(item.ID, item.Context)

	if err := tagCell(result, sample.Truth, b.H3Resolution); err != nil {
		out.Err = fmt.Errorf("item %s: %w", item.ID, err)

		return out
	}

	out.Result = result
	out.ProjectedPrediction = e.ProjectedPrediction()

	return out
}

// tagCell sets the H3 cell of truth on r. A resolution of 0 leaves r untagged.
func tagCell(r *Result, truth spatial.Point, res int) error {
	if res <= 0 {
		return nil
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(truth.Lat, truth.Lng), res)
	if err != nil {
		return fmt.Errorf("h3 cell at res %d: %w", res, err)
	}

	r.Cell = cell

	return nil
}

// Results returns the successful results of outcomes, in order.
func Results(outcomes []Outcome) []*Result {
	results := make([]*Result, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			results = append(results, o.Result)
		}
	}

	return results
}
