// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"log"

	"github.com/jcodagnone/trackeval/evaluation"
	"github.com/spf13/cobra"
)

var (
	serveListen       string
	serveH3Resolution int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the evaluation HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("listen") {
			cfg.Listen = serveListen
		}

		if cmd.Flags().Changed("h3-resolution") {
			cfg.H3Resolution = serveH3Resolution

			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		var (
			db   *sql.DB
			repo evaluation.ResultRepository
		)

		if cfg.DbPath != "" {
			db, repo, err = openRepository(cfg.DbPath)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		log.Printf("Serving evaluations on %s (crs %s)", cfg.Listen, cfg.CRS)

		server := evaluation.NewServer(repo, cfg.CRS)
		server.H3Resolution = cfg.H3Resolution

		return server.Run(cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveListen,
		"listen",
		"localhost:8080",
		"Address to listen on",
	)
	serveCmd.Flags().IntVar(
		&serveH3Resolution,
		"h3-resolution",
		0,
		"Tag stored results with the H3 cell of the true position at this resolution (1-15, 0 disables)",
	)
}
