// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jcodagnone/trackeval/evaluation"
	"github.com/jcodagnone/trackeval/projection"
	"github.com/spf13/cobra"
)

type evaluateOptions struct {
	Output       string
	Concurrency  int
	H3Resolution int
	Strict       bool
}

var evalOptions = &evaluateOptions{}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [items.jsonl]",
	Short: "Evaluates predictions and writes one CSV row per prediction",
	Long: `Lee predicciones en formato JSON Lines desde un archivo o desde la entrada
estándar, una por línea:

  {"id": "bus-12", "context": "horizon=60s",
   "prediction": {"lat": -34.91, "lng": -56.16},
   "truth": {"lat": -34.912, "lng": -56.15},
   "trajectory": [{"lat": -34.91, "lng": -56.19}, {"lat": -34.915, "lng": -56.17}]}

La trayectoria puede darse también como polilínea codificada en "polyline".
Las predicciones que no pueden evaluarse se informan en el log y se omiten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("concurrency") {
			cfg.Concurrency = evalOptions.Concurrency
		}

		if flags.Changed("h3-resolution") {
			cfg.H3Resolution = evalOptions.H3Resolution
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		proj, err := projection.New(cfg.CRS)
		if err != nil {
			return err
		}

		var r io.Reader = os.Stdin

		if len(args) > 0 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			r = f
		} else if isTerminal(os.Stdin) {
			fmt.Fprintln(os.Stderr, "Ingrese predicciones en JSON, una por línea…")
		}

		items, err := evaluation.ReadItems(r)
		if err != nil {
			return err
		}

		batch := &evaluation.Batch{
			Projector:    proj,
			Concurrency:  cfg.Concurrency,
			H3Resolution: cfg.H3Resolution,
			Progress:     true,
		}

		outcomes, err := batch.Run(cmd.Context(), items)
		if err != nil {
			return err
		}

		results := evaluation.Results(outcomes)

		if err := writeResults(evalOptions.Output, results); err != nil {
			return err
		}

		if cfg.DbPath != "" {
			db, repo, err := openRepository(cfg.DbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repo.SaveResults(proj.Code(), results); err != nil {
				return fmt.Errorf("saving results: %w", err)
			}

			log.Printf("Stored %d results in %s", len(results), cfg.DbPath)
		}

		if evalOptions.Strict && batch.Metrics.Failed > 0 {
			return fmt.Errorf("%d of %d predictions could not be evaluated", batch.Metrics.Failed, len(items))
		}

		return nil
	},
}

func writeResults(path string, results []*evaluation.Result) error {
	if path == "" || path == "-" {
		return writeCSV(os.Stdout, results)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	if err := writeCSV(f, results); err != nil {
		f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	return nil
}

func writeCSV(w io.Writer, results []*evaluation.Result) error {
	buf := bufio.NewWriter(w)
	csv := evaluation.NewCSVWriter(buf)

	if err := csv.WriteHeader(); err != nil {
		return err
	}

	for _, r := range results {
		if err := csv.Write(r); err != nil {
			return err
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(
		&evalOptions.Output,
		"output",
		"o",
		"",
		"CSV output file, stdout by default",
	)
	evaluateCmd.Flags().IntVar(
		&evalOptions.Concurrency,
		"concurrency",
		0,
		"Max number of predictions evaluated at once. Defaults to the number of CPUs",
	)
	evaluateCmd.Flags().IntVar(
		&evalOptions.H3Resolution,
		"h3-resolution",
		0,
		"Tag stored results with the H3 cell of the true position at this resolution (1-15, 0 disables)",
	)
	evaluateCmd.Flags().BoolVar(
		&evalOptions.Strict,
		"strict",
		false,
		"Exit with an error when any prediction could not be evaluated",
	)
}
