// Package batch runs many transcripts' scoring in fixed-size concurrent
// waves. Waves execute sequentially; rows inside a wave are independent, so
// the only shared mutable state is the row-state map, updated by whole-row
// replacement under one mutex.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/anderson/internal/ingest"
)

// Status is a row's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Inter-wave delays: short after a clean wave, longer after any failure, an
// elementary backoff against oracle rate limiting.
const (
	cleanWaveDelay = 2 * time.Second
	dirtyWaveDelay = 5 * time.Second
)

// RowState is the observable snapshot of one row. Updated only by whole-row
// replacement; readers always see a consistent row.
type RowState struct {
	RowID          string    `json:"rowId"`
	ConversationID string    `json:"conversationId"`
	Status         Status    `json:"status"`
	Error          string    `json:"error,omitempty"`
	AnalysisID     uuid.UUID `json:"analysisId,omitempty"`
	OverallScore   int       `json:"overallScore"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Outcome is what a successful scoring call produced for one row.
type Outcome struct {
	AnalysisID   uuid.UUID
	OverallScore int
}

// ScoreFunc scores and persists one row. It must honor ctx cancellation and
// surface it as context.Canceled.
type ScoreFunc func(ctx context.Context, row ingest.Row) (Outcome, error)

// Coordinator owns the row-state map for one uploaded batch and drives
// scoring invocations over it. A fresh invocation skips completed rows and
// retries errored ones.
type Coordinator struct {
	ID    uuid.UUID
	score ScoreFunc

	waveSize   int
	cleanDelay time.Duration
	dirtyDelay time.Duration
	logger     *slog.Logger
	publish    func(RowState)

	mu      sync.Mutex
	rows    []ingest.Row
	states  map[string]RowState
	cancel  context.CancelFunc
	running bool
}

func New(rows []ingest.Row, score ScoreFunc, waveSize int, logger *slog.Logger) *Coordinator {
	if waveSize < 1 {
		waveSize = 1
	}
	c := &Coordinator{
		ID:         uuid.New(),
		score:      score,
		waveSize:   waveSize,
		cleanDelay: cleanWaveDelay,
		dirtyDelay: dirtyWaveDelay,
		logger:     logger,
		rows:       rows,
		states:     make(map[string]RowState, len(rows)),
	}
	for _, r := range rows {
		c.states[r.RowID] = RowState{
			RowID:          r.RowID,
			ConversationID: r.ConversationID,
			Status:         StatusPending,
			UpdatedAt:      time.Now().UTC(),
		}
	}
	return c
}

// SetPublisher registers a hook called on every row-state transition, for
// progress reporting. Must be set before Run.
func (c *Coordinator) SetPublisher(fn func(RowState)) {
	c.publish = fn
}

// Snapshot returns every row's current state in upload order.
func (c *Coordinator) Snapshot() []RowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RowState, 0, len(c.rows))
	for _, r := range c.rows {
		out = append(out, c.states[r.RowID])
	}
	return out
}

// Cancel aborts the in-flight invocation, if any. Rows whose request was
// aborted keep their prior state.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Running reports whether an invocation is in flight.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run executes one scoring invocation: pending and errored rows, in waves.
// Completed rows are skipped, so re-running a finished batch is a no-op.
// Returns ctx.Err() when the invocation was cancelled, nil otherwise;
// per-row failures are recorded in row state, never returned.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("batch already running")
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true

	var todo []ingest.Row
	for _, r := range c.rows {
		if c.states[r.RowID].Status != StatusCompleted {
			todo = append(todo, r)
		}
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	c.logger.Info("batch run starting",
		"batch_id", c.ID,
		"rows_total", len(c.rows),
		"rows_to_score", len(todo),
		"wave_size", c.waveSize,
	)

	for start := 0; start < len(todo); start += c.waveSize {
		if ctx.Err() != nil {
			c.logger.Info("batch run aborted", "batch_id", c.ID)
			return ctx.Err()
		}

		end := start + c.waveSize
		if end > len(todo) {
			end = len(todo)
		}
		wave := todo[start:end]
		failures := c.runWave(ctx, wave)

		c.logger.Info("wave settled",
			"batch_id", c.ID,
			"wave_rows", len(wave),
			"failures", failures,
		)

		if end < len(todo) && ctx.Err() == nil {
			delay := c.cleanDelay
			if failures > 0 {
				delay = c.dirtyDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if err := ctx.Err(); err != nil {
		c.logger.Info("batch run aborted", "batch_id", c.ID)
		return err
	}
	c.logger.Info("batch run complete", "batch_id", c.ID)
	return nil
}

// runWave scores up to waveSize rows concurrently and returns how many
// genuinely failed. Coordinator-initiated aborts do not count.
func (c *Coordinator) runWave(ctx context.Context, wave []ingest.Row) int {
	var mu sync.Mutex
	failures := 0

	g := new(errgroup.Group)
	for _, row := range wave {
		g.Go(func() error {
			if c.scoreRow(ctx, row) {
				mu.Lock()
				failures++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// scoreRow drives one row through analyzing → completed|error. Returns true
// when the row genuinely failed. An aborted row is restored to its prior
// state and does not count as a failure.
func (c *Coordinator) scoreRow(ctx context.Context, row ingest.Row) bool {
	if ctx.Err() != nil {
		return false // not started; row keeps its prior state
	}

	prior := c.getState(row.RowID)
	c.setState(RowState{
		RowID:          row.RowID,
		ConversationID: row.ConversationID,
		Status:         StatusAnalyzing,
		UpdatedAt:      time.Now().UTC(),
	})

	outcome, err := c.score(ctx, row)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Coordinator-initiated abort, not a scoring failure.
			c.setState(prior)
			return false
		}
		c.logger.Error("row scoring failed",
			"batch_id", c.ID,
			"row_id", row.RowID,
			"conversation_id", row.ConversationID,
			"error", err,
		)
		c.setState(RowState{
			RowID:          row.RowID,
			ConversationID: row.ConversationID,
			Status:         StatusError,
			Error:          err.Error(),
			UpdatedAt:      time.Now().UTC(),
		})
		return true
	}

	c.setState(RowState{
		RowID:          row.RowID,
		ConversationID: row.ConversationID,
		Status:         StatusCompleted,
		AnalysisID:     outcome.AnalysisID,
		OverallScore:   outcome.OverallScore,
		UpdatedAt:      time.Now().UTC(),
	})
	return false
}

func (c *Coordinator) getState(rowID string) RowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[rowID]
}

func (c *Coordinator) setState(st RowState) {
	c.mu.Lock()
	c.states[st.RowID] = st
	c.mu.Unlock()
	if c.publish != nil {
		c.publish(st)
	}
}
