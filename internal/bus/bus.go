// Package bus publishes anderson's lifecycle events over NATS so dashboards
// and sibling agents can follow batch progress without polling the API.
package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MikeSquared-Agency/anderson/internal/batch"
)

const (
	SubjectRegistered     = "swarm.agent.anderson.registered"
	SubjectRowState       = "swarm.anderson.batch.row"
	SubjectAnalysisStored = "swarm.anderson.analysis.stored"
)

// RowStateEvent mirrors one row-state transition inside a running batch.
type RowStateEvent struct {
	BatchID        string `json:"batch_id"`
	RowID          string `json:"row_id"`
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	OverallScore   int    `json:"overall_score"`
	Timestamp      string `json:"timestamp"`
}

// AnalysisStoredEvent announces a persisted analysis.
type AnalysisStoredEvent struct {
	AnalysisID     string `json:"analysis_id"`
	ConversationID string `json:"conversation_id"`
	OverallScore   int    `json:"overall_score"`
	TotalBlocks    int    `json:"total_blocks"`
	Timestamp      string `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishRowState forwards a batch row transition. Publish failures are
// logged and swallowed; progress events are best-effort.
func (c *Client) PublishRowState(batchID string, st batch.RowState) {
	evt := RowStateEvent{
		BatchID:        batchID,
		RowID:          st.RowID,
		ConversationID: st.ConversationID,
		Status:         string(st.Status),
		Error:          st.Error,
		OverallScore:   st.OverallScore,
		Timestamp:      st.UpdatedAt.Format(time.RFC3339),
	}
	if err := c.Publish(SubjectRowState, evt); err != nil {
		c.logger.Warn("failed to publish row state", "row_id", st.RowID, "error", err)
	}
}

func (c *Client) Close() {
	c.conn.Close()
}
