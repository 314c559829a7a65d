// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"
)

// StoredResult is a result as persisted, with the evaluation metadata.
type StoredResult struct {
	*Result
	CRS         string    `json:"crs"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// ResultRepository persists evaluation results.
type ResultRepository interface {
	// CreateSchema creates the database schema.
	CreateSchema() error
	// SaveResults stores results evaluated with the given coordinate system.
	SaveResults(crs string, results []*Result) error
	// ListResults returns stored results, optionally restricted to an H3 cell.
	ListResults(cell *int64, limit, offset int) ([]*StoredResult, error)
	// CountResults returns the number of stored results.
	CountResults() (int, error)
}

type sqlResultRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLResultRepository returns a repository backed by db, a DuckDB
// connection.
func NewSQLResultRepository(db *sql.DB) ResultRepository {
	return &sqlResultRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *sqlResultRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS evaluations (
			id VARCHAR NOT NULL,
			predicted_lng DOUBLE NOT NULL,
			predicted_lat DOUBLE NOT NULL,
			context VARCHAR,
			distance_error DOUBLE NOT NULL,
			along_track_error DOUBLE NOT NULL,
			cross_track_error DOUBLE NOT NULL,
			h3_cell BIGINT,
			crs VARCHAR NOT NULL,
			evaluated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating evaluations table: %w", err)
	}

	return nil
}

func (r *sqlResultRepository) SaveResults(crs string, results []*Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT INTO evaluations (
			id, predicted_lng, predicted_lat, context,
			distance_error, along_track_error, cross_track_error,
			h3_cell, crs, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := r.now()

	for _, res := range results {
		row := make([]float64, 0, 3)

		for _, name := range []string{MetricDistance, MetricAlongTrack, MetricCrossTrack} {
			v, err := res.Metric(name)
			if err != nil {
				return err
			}

			row = append(row, v)
		}

		var cell sql.NullInt64
		if res.Cell != 0 {
			cell = sql.NullInt64{Int64: int64(res.Cell), Valid: true}
		}

		if _, err := stmt.Exec(
			res.ID, res.PredictedLocation.Lng, res.PredictedLocation.Lat, res.Context,
			row[0], row[1], row[2],
			cell, crs, now,
		); err != nil {
			return fmt.Errorf("inserting result %s: %w", res.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing results: %w", err)
	}

	return nil
}

func (r *sqlResultRepository) ListResults(cell *int64, limit, offset int) ([]*StoredResult, error) {
	query := `
		SELECT
			id, predicted_lng, predicted_lat, context,
			distance_error, along_track_error, cross_track_error,
			h3_cell, crs, evaluated_at
		FROM evaluations`

	var args []any
	if cell != nil {
		query += ` WHERE h3_cell = ?`

		args = append(args, *cell)
	}

	query += ` ORDER BY evaluated_at, id`

	if limit > 0 {
		query += ` LIMIT ?`

		args = append(args, limit)
	}

	if offset > 0 {
		query += ` OFFSET ?`

		args = append(args, offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying evaluations: %w", err)
	}
	defer rows.Close()

	var results []*StoredResult

	for rows.Next() {
		var (
			res                    = &Result{Errors: Metrics{}}
			stored                 = &StoredResult{Result: res}
			context                sql.NullString
			h3Cell                 sql.NullInt64
			distance, along, cross float64
		)

		if err := rows.Scan(
			&res.ID, &res.PredictedLocation.Lng, &res.PredictedLocation.Lat, &context,
			&distance, &along, &cross,
			&h3Cell, &stored.CRS, &stored.EvaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning evaluation: %w", err)
		}

		res.Context = context.String
		res.Errors[MetricDistance] = distance
		res.Errors[MetricAlongTrack] = along
		res.Errors[MetricCrossTrack] = cross

		if h3Cell.Valid {
			res.Cell = h3.Cell(h3Cell.Int64)
		}

		results = append(results, stored)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evaluations: %w", err)
	}

	return results, nil
}

func (r *sqlResultRepository) CountResults() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM evaluations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting evaluations: %w", err)
	}

	return n, nil
}
