// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jcodagnone/trackeval/evaluation"
	"github.com/spf13/cobra"
)

type resultsOptions struct {
	Cell   int64
	Limit  int
	Offset int
}

var resOptions = &resultsOptions{}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Access stored results",
}

var resultsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Prints the number of stored results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cfg.DbPath == "" {
			return errors.New("--db-path is required")
		}

		db, repo, err := openRepository(cfg.DbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := repo.CountResults()
		if err != nil {
			return err
		}

		fmt.Println(n)

		return nil
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Writes stored results as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cfg.DbPath == "" {
			return errors.New("--db-path is required")
		}

		db, repo, err := openRepository(cfg.DbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		var cell *int64
		if cmd.Flags().Changed("cell") {
			cell = &resOptions.Cell
		}

		stored, err := repo.ListResults(cell, resOptions.Limit, resOptions.Offset)
		if err != nil {
			return err
		}

		results := make([]*evaluation.Result, len(stored))
		for i, s := range stored {
			results[i] = s.Result
		}

		return writeResults(evalOptions.Output, results)
	},
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists stored results with their metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cfg.DbPath == "" {
			return errors.New("--db-path is required")
		}

		db, repo, err := openRepository(cfg.DbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		var cell *int64
		if cmd.Flags().Changed("cell") {
			cell = &resOptions.Cell
		}

		stored, err := repo.ListResults(cell, resOptions.Limit, resOptions.Offset)
		if err != nil {
			return err
		}

		a, b, c := strings.Repeat("─", 20), strings.Repeat("─", 10), strings.Repeat("─", 60)
		fmt.Printf("╭─%-20s─┬─%-10s─┬─%-60s╮\n", a, b, c)
		fmt.Printf("│ %-20s │ %-10s │ %-60s│\n", "Evaluado", "CRS", "Resultado")
		fmt.Printf("├─%-20s─┼─%-10s─┼─%-60s┤\n", a, b, c)

		for _, s := range stored {
			fmt.Printf("│ %-20s │ %-10s │ %-60s│\n", s.EvaluatedAt.Format("2006-01-02 15:04:05"), s.CRS, s.Result)
		}

		fmt.Printf("╰─%-20s─┴─%-10s─┴─%-60s╯\n", a, b, c)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsCountCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	resultsCmd.AddCommand(resultsListCmd)

	resultsCmd.PersistentFlags().Int64Var(
		&resOptions.Cell,
		"cell",
		0,
		"Only results whose true position falls in this H3 cell",
	)
	resultsCmd.PersistentFlags().IntVar(
		&resOptions.Limit,
		"limit",
		0,
		"Max number of results, 0 for all",
	)
	resultsCmd.PersistentFlags().IntVar(
		&resOptions.Offset,
		"offset",
		0,
		"Number of results to skip",
	)
	resultsExportCmd.Flags().StringVarP(
		&evalOptions.Output,
		"output",
		"o",
		"",
		"CSV output file, stdout by default",
	)
}
