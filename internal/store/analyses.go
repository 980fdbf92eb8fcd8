package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/anderson/internal/analyzer"
)

// AnalysisRecord is one persisted conversation analysis. The full analysis
// is stored as JSONB; the sub-scores are denormalized for listing queries.
type AnalysisRecord struct {
	ID                  uuid.UUID         `json:"id"`
	ConversationID      string            `json:"conversationId"`
	SessionID           string            `json:"sessionId"`
	StagesPassed        string            `json:"stagesPassed"`
	Content             string            `json:"content"`
	Analysis            analyzer.Analysis `json:"analysis"`
	OverallScore        int               `json:"overallScore"`
	AdherenceToMission  int               `json:"adherenceToMission"`
	ContextCoherence    int               `json:"contextCoherence"`
	GuidelineCompliance int               `json:"guidelineCompliance"`
	ResponseQuality     int               `json:"responseQuality"`
	CreatedAt           time.Time         `json:"createdAt"`
}

// SaveAnalysis inserts one analysis row and returns its id.
// Table: conversation_analyses.
func (s *Store) SaveAnalysis(ctx context.Context, rec AnalysisRecord) (uuid.UUID, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	payload, err := json.Marshal(rec.Analysis)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversation_analyses
			(id, conversation_id, session_id, stages_passed, content, analysis,
			 overall_score, adherence_to_mission, context_coherence, guideline_compliance, response_quality, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`,
		rec.ID, rec.ConversationID, rec.SessionID, rec.StagesPassed, rec.Content, payload,
		rec.Analysis.OverallScore, rec.Analysis.AdherenceToMission, rec.Analysis.ContextCoherence,
		rec.Analysis.GuidelineCompliance, rec.Analysis.ResponseQuality,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert analysis: %w", err)
	}

	return rec.ID, nil
}

// RecentAnalyses returns the most recent analyses, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, session_id, stages_passed, content, analysis,
		       overall_score, adherence_to_mission, context_coherence, guideline_compliance, response_quality, created_at
		FROM conversation_analyses
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestAnalysisByConversation returns the newest analysis for one
// conversation, or nil when none exists.
func (s *Store) LatestAnalysisByConversation(ctx context.Context, conversationID string) (*AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, conversation_id, session_id, stages_passed, content, analysis,
		       overall_score, adherence_to_mission, context_coherence, guideline_compliance, response_quality, created_at
		FROM conversation_analyses
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, conversationID)

	rec, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func scanAnalysis(row pgx.Row) (AnalysisRecord, error) {
	var rec AnalysisRecord
	var payload []byte
	err := row.Scan(
		&rec.ID, &rec.ConversationID, &rec.SessionID, &rec.StagesPassed, &rec.Content, &payload,
		&rec.OverallScore, &rec.AdherenceToMission, &rec.ContextCoherence, &rec.GuidelineCompliance,
		&rec.ResponseQuality, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan analysis: %w", err)
	}
	if err := json.Unmarshal(payload, &rec.Analysis); err != nil {
		return rec, fmt.Errorf("unmarshal analysis payload: %w", err)
	}
	return rec, nil
}
