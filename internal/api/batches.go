package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/anderson/internal/batch"
	"github.com/MikeSquared-Agency/anderson/internal/ingest"
	"github.com/MikeSquared-Agency/anderson/internal/store"
)

// startBatch accepts a CSV export in the request body, registers a
// coordinator for its rows and kicks off scoring in the background.
func (s *Server) startBatch(w http.ResponseWriter, r *http.Request) {
	rows, err := ingest.ReadRows(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not parse CSV body: "+err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "CSV contains no usable rows")
		return
	}

	custom, err := s.resolvePrompt(r, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stored prompt")
		return
	}

	c := batch.New(rows, s.batchScoreFunc(custom), s.waveSize, s.logger)
	if s.bus != nil {
		batchID := c.ID.String()
		c.SetPublisher(func(st batch.RowState) {
			s.bus.PublishRowState(batchID, st)
		})
	}

	s.mu.Lock()
	s.batches[c.ID] = c
	s.mu.Unlock()

	go func() {
		if err := c.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("batch run failed", "batch_id", c.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batchId": c.ID.String(),
		"rows":    len(rows),
	})
}

// batchScoreFunc scores one row and persists the result. The stored prompt
// is resolved once per batch, not per row.
func (s *Server) batchScoreFunc(customPrompt string) batch.ScoreFunc {
	return func(ctx context.Context, row ingest.Row) (batch.Outcome, error) {
		res, err := s.scorer.Analyze(ctx, row.ConversationID, row.Content, customPrompt)
		if err != nil {
			return batch.Outcome{}, err
		}

		rec := store.AnalysisRecord{
			ConversationID: row.ConversationID,
			SessionID:      row.SessionID,
			StagesPassed:   row.StagesPassed,
			Content:        row.Content,
			Analysis:       res.Analysis,
		}
		id, err := s.db.SaveAnalysis(ctx, rec)
		if err != nil {
			return batch.Outcome{}, err
		}
		return batch.Outcome{AnalysisID: id, OverallScore: res.Analysis.OverallScore}, nil
	}
}

func (s *Server) lookupBatch(w http.ResponseWriter, r *http.Request) *batch.Coordinator {
	raw := strings.TrimSpace(chi.URLParam(r, "batchID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return nil
	}
	s.mu.Lock()
	c := s.batches[id]
	s.mu.Unlock()
	if c == nil {
		writeError(w, http.StatusNotFound, "unknown batch")
		return nil
	}
	return c
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	c := s.lookupBatch(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batchId": c.ID.String(),
		"running": c.Running(),
		"rows":    c.Snapshot(),
	})
}

func (s *Server) cancelBatch(w http.ResponseWriter, r *http.Request) {
	c := s.lookupBatch(w, r)
	if c == nil {
		return
	}
	c.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"batchId": c.ID.String(),
		"status":  "cancelling",
	})
}
