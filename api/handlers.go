package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/runlog"
	"github.com/echolab/echotext/pkg/runlog/registry"
)

// ErrorResponse is the JSON error payload returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse is the JSON view of a run record.
type RunResponse struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	ArtifactDir string     `json:"artifact_dir,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SimilarResponse is the JSON payload for a nearest-neighbor query.
type SimilarResponse struct {
	ID      string          `json:"id"`
	Matches []SimilarResult `json:"matches"`
}

// SimilarResult is a single nearest-neighbor match.
type SimilarResult struct {
	ID     string  `json:"id"`
	Author string  `json:"author,omitempty"`
	RunID  string  `json:"run_id,omitempty"`
	Score  float32 `json:"score"`
}

func runResponse(run *registry.Run) RunResponse {
	resp := RunResponse{
		ID:          run.ID,
		Kind:        run.Kind,
		Status:      run.Status,
		ArtifactDir: run.ArtifactDir,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
	}
	if !run.CompletedAt.IsZero() {
		completed := run.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListRuns returns run records, newest first.
func (s *Server) handleListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	runs, err := s.runs.List(c.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list runs"})
	}

	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, runResponse(run))
	}

	return c.JSON(map[string]any{
		"count": len(responses),
		"runs":  responses,
	})
}

// handleGetRun returns a single run record by ID.
func (s *Server) handleGetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	run, err := s.runs.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
		}
		s.logger.Error("getting run", zap.String("run_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get run"})
	}

	return c.JSON(runResponse(run))
}

// handleGetReport returns the markdown report of a completed run.
func (s *Server) handleGetReport(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	run, err := s.runs.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
		}
		s.logger.Error("getting run", zap.String("run_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get run"})
	}

	if run.ArtifactDir == "" {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run has no artifacts"})
	}

	report, err := runlog.LoadReport(run.ArtifactDir)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "report not found"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(report)
}

// handleSimilar returns the nearest-neighbor documents for a stored document.
func (s *Server) handleSimilar(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	topK, err := strconv.Atoi(c.Query("k", "5"))
	if err != nil || topK <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "k must be a positive integer"})
	}

	docs, err := s.vectors.Get(c.Context(), []string{id})
	if err != nil {
		s.logger.Error("getting document", zap.String("doc_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get document"})
	}
	if len(docs) == 0 || len(docs[0].Embedding) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "document not found"})
	}

	// Query one extra so the document itself can be filtered from its own results.
	results, err := s.vectors.Query(c.Context(), docs[0].Embedding, topK+1)
	if err != nil {
		s.logger.Error("querying similar documents", zap.String("doc_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to query similar documents"})
	}

	matches := make([]SimilarResult, 0, topK)
	for _, result := range results {
		if result.ID == id {
			continue
		}
		matches = append(matches, SimilarResult{
			ID:     result.ID,
			Author: result.Author,
			RunID:  result.RunID,
			Score:  result.Score,
		})
		if len(matches) == topK {
			break
		}
	}

	return c.JSON(SimilarResponse{
		ID:      id,
		Matches: matches,
	})
}
