package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// The prompt config lives in a single fixed row; there is exactly one
// editable auditor prompt per deployment.
// Table: analysis_prompts.
const promptRowID = 1

// GetPrompt returns the saved auditor prompt. found is false when no prompt
// has ever been saved; callers fall back to the built-in default.
func (s *Store) GetPrompt(ctx context.Context) (text string, found bool, err error) {
	row := s.pool.QueryRow(ctx,
		`SELECT prompt_text FROM analysis_prompts WHERE id = $1`, promptRowID)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select prompt: %w", err)
	}
	return text, true, nil
}

// SavePrompt upserts the fixed prompt row.
func (s *Store) SavePrompt(ctx context.Context, text string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_prompts (id, prompt_text, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET prompt_text = EXCLUDED.prompt_text, updated_at = now()`,
		promptRowID, text,
	)
	if err != nil {
		return fmt.Errorf("upsert prompt: %w", err)
	}
	return nil
}
