// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/trackeval/projection"
	"github.com/jcodagnone/trackeval/spatial"
	"github.com/uber/h3-go/v4"
)

// Server exposes evaluation over HTTP.
type Server struct {
	repo       ResultRepository
	defaultCRS string

	// H3Resolution tags results with the H3 cell of the truth when > 0.
	H3Resolution int
}

// NewServer returns a server evaluating with defaultCRS unless a request
// names another. repo may be nil, in which case nothing is stored.
func NewServer(repo ResultRepository, defaultCRS string) *Server {
	return &Server{repo: repo, defaultCRS: defaultCRS}
}

// EvaluateRequest is the body of POST /api/evaluations.
type EvaluateRequest struct {
	Item
	CRS string `json:"crs"`
}

// EvaluateResponse is the answer to POST /api/evaluations.
type EvaluateResponse struct {
	ID                  string        `json:"id"`
	PredictedLocation   spatial.Point `json:"predicted_location"`
	ProjectedPrediction spatial.Point `json:"projected_prediction"`
	Context             string        `json:"context"`
	CRS                 string        `json:"crs"`
	Errors              Metrics       `json:"errors"`
	Cell                h3.Cell       `json:"h3_cell,omitempty"`
}

// Routes registers the API on r.
func (s *Server) Routes(r gin.IRouter) {
	r.POST("/api/evaluations", s.evaluate)
	r.GET("/api/evaluations", s.listResults)
	r.GET("/api/evaluations.csv", s.exportResults)
}

// Run serves the API on addr until it fails.
func (s *Server) Run(addr string) error {
	r := gin.Default()
	s.Routes(r)

	return r.Run(addr)
}

func (s *Server) evaluate(ctx *gin.Context) {
	var req EvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	crs := req.CRS
	if crs == "" {
		crs = s.defaultCRS
	}

	proj, err := projection.New(crs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	sample, err := req.Sample()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	e, err := NewEvaluator(sample, req.Prediction, proj)
	if err != nil {
		status := http.StatusInternalServerError
		if projection.IsProjectionError(err) || IsDegenerateTrajectoryError(err) {
			status = http.StatusBadRequest
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	result := e.Result(req.ID, req.Context)

	if err := tagCell(result, sample.Truth, s.H3Resolution); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if s.repo != nil {
		if err := s.repo.SaveResults(proj.Code(), []*Result{result}); err != nil {
			log.Printf("Saving evaluation %s failed - %s", req.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store evaluation"})

			return
		}
	}

	ctx.JSON(http.StatusOK, EvaluateResponse{
		ID:                  result.ID,
		PredictedLocation:   result.PredictedLocation,
		ProjectedPrediction: e.ProjectedPrediction(),
		Context:             result.Context,
		CRS:                 proj.Code(),
		Errors:              result.Errors,
		Cell:                result.Cell,
	})
}

var errNoRepository = errors.New("no result repository configured")

func (s *Server) queryResults(ctx *gin.Context) ([]*StoredResult, int, error) {
	if s.repo == nil {
		return nil, http.StatusNotFound, errNoRepository
	}

	var cell *int64

	if v := ctx.Query("cell"); v != "" {
		c, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, http.StatusBadRequest, errors.New("invalid cell parameter")
		}

		cell = &c
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		return nil, http.StatusBadRequest, errors.New("invalid limit parameter")
	}

	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return nil, http.StatusBadRequest, errors.New("invalid offset parameter")
	}

	results, err := s.repo.ListResults(cell, limit, offset)
	if err != nil {
		log.Printf("Listing evaluations failed - %s", err)

		return nil, http.StatusInternalServerError, errors.New("failed to list evaluations")
	}

	return results, http.StatusOK, nil
}

func (s *Server) listResults(ctx *gin.Context) {
	results, status, err := s.queryResults(ctx)
	if err != nil {
		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	if results == nil {
		results = []*StoredResult{}
	}

	ctx.JSON(http.StatusOK, results)
}

func (s *Server) exportResults(ctx *gin.Context) {
	results, status, err := s.queryResults(ctx)
	if err != nil {
		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Status(http.StatusOK)

	w := NewCSVWriter(ctx.Writer)
	if err := w.WriteHeader(); err != nil {
		log.Printf("Exporting evaluations failed - %s", err)

		return
	}

	for _, res := range results {
		if err := w.Write(res.Result); err != nil {
			log.Printf("Exporting evaluations failed - %s", err)

			return
		}
	}
}
