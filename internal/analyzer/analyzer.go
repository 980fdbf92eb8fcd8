// Package analyzer drives one transcript through the scoring pipeline:
// extract regions, segment into AI blocks, assemble the tiered prompt, call
// the oracle once under a hard wall-clock budget, and reconcile the response
// against the ground-truth block list.
package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/anderson/internal/openai"
	"github.com/MikeSquared-Agency/anderson/internal/prompt"
	"github.com/MikeSquared-Agency/anderson/internal/transcript"
)

// oracleTimeout is the hard per-call wall-clock budget. Independent of any
// coordinator-level cancellation.
const oracleTimeout = 90 * time.Second

type Analyzer struct {
	llm     *openai.Client
	logger  *slog.Logger
	timeout time.Duration
}

func New(llm *openai.Client, logger *slog.Logger) *Analyzer {
	return &Analyzer{llm: llm, logger: logger, timeout: oracleTimeout}
}

// Analyze scores one transcript. customPrompt, when non-empty, replaces the
// built-in tier templates via placeholder substitution. The returned error,
// when non-nil, is either a classified *openai.Error or the caller's context
// cancellation.
func (a *Analyzer) Analyze(ctx context.Context, conversationID, content, customPrompt string) (*Result, error) {
	parts := transcript.Extract(content)
	blocks := transcript.Segment(transcript.Tokenize(parts.Conversation))

	rendered := prompt.Assemble(prompt.Input{
		Mission:         parts.Mission,
		PromptTemplates: parts.PromptTemplates,
		TransitionTools: parts.TransitionTools,
		Blocks:          blocks,
		CustomTemplate:  customPrompt,
	})
	maxTokens := prompt.MaxTokensFor(len(blocks))

	a.logger.Info("analyzing conversation",
		"conversation_id", conversationID,
		"content_len", len(content),
		"blocks", len(blocks),
		"tier", prompt.TierFor(len(blocks)).String(),
		"max_tokens", maxTokens,
		"custom_prompt", customPrompt != "",
	)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.llm.Complete(callCtx, prompt.SystemInstruction, rendered, maxTokens)
	if err != nil {
		a.logger.Error("oracle call failed",
			"conversation_id", conversationID,
			"blocks", len(blocks),
			"kind", openai.KindOf(err).String(),
			"error", err,
		)
		return nil, err
	}

	parsed, err := parseAnalysisJSON(raw)
	if err != nil {
		a.logger.Error("failed to parse oracle response",
			"conversation_id", conversationID,
			"error", err,
			"raw_len", len(raw),
		)
		return nil, err
	}

	analysis := reconcile(parsed, blocks, parts.Mission)

	a.logger.Info("analysis complete",
		"conversation_id", conversationID,
		"overall_score", analysis.OverallScore,
		"blocks", len(analysis.BlockAnalysis),
	)

	return &Result{
		ConversationID: conversationID,
		Analysis:       analysis,
		TotalBlocks:    len(blocks),
		Timestamp:      time.Now().UTC(),
	}, nil
}

// parseAnalysisJSON decodes the oracle's completion text. Code fences are
// stripped first; a parse failure whose message indicates a string cut mid-
// value is re-labeled as truncation, since that is the dominant observed
// cause of malformed bodies.
func parseAnalysisJSON(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.ReplaceAll(text, "```json", "")
		text = strings.ReplaceAll(text, "```", "")
		text = strings.TrimSpace(text)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		kind := openai.KindParse
		if isTruncationParseError(err) {
			kind = openai.KindTruncated
		}
		return nil, &openai.Error{Kind: kind, Message: "parse analysis: " + err.Error()}
	}
	return parsed, nil
}

func isTruncationParseError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON input") ||
		strings.Contains(msg, "unterminated")
}
