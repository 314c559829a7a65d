// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/trackeval/config"
	"github.com/jcodagnone/trackeval/evaluation"
	"github.com/spf13/cobra"
)

const dbFile = "trackeval.duckdb"

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "trackeval",
	Short: "scores predicted locations against the true trajectory",
	Long: `
trackeval mide el error de una posición predicha respecto de la trayectoria
real del objeto: distancia directa, error a lo largo de la trayectoria y error
transversal, en metros.
`,
	SilenceUsage: true,
}

var Version = "dev"

type rootOptions struct {
	ConfigPath string
	CRS        string
	DbPath     string
}

var options = &rootOptions{}

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the flags the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(options.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("crs") {
		cfg.CRS = options.CRS
	}

	if flags.Changed("db-path") {
		cfg.DbPath = options.DbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// openRepository opens the result database under dbPath, creating it when
// needed.
func openRepository(dbPath string) (*sql.DB, evaluation.ResultRepository, error) {
	if err := os.MkdirAll(dbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(dbPath, dbFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := evaluation.NewSQLResultRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.ConfigPath,
		"config",
		"",
		"YAML configuration file",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.CRS,
		"crs",
		"epsg:3857",
		"Planar coordinate system used to project predictions onto trajectories (epsg:4326, epsg:3857, epsg:326NN, epsg:327NN)",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.DbPath,
		"db-path",
		"",
		"Directory of the results database. Results are not stored when empty",
	)
}
