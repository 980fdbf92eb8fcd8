package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/anderson/internal/analyzer"
	"github.com/MikeSquared-Agency/anderson/internal/bus"
	"github.com/MikeSquared-Agency/anderson/internal/openai"
	"github.com/MikeSquared-Agency/anderson/internal/prompt"
	"github.com/MikeSquared-Agency/anderson/internal/store"
)

type analyzeRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	CustomPrompt   string `json:"customPrompt,omitempty"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ConversationID == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "conversationId and content are required")
		return
	}

	custom, err := s.resolvePrompt(r, req.CustomPrompt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stored prompt")
		return
	}

	res, err := s.scorer.Analyze(r.Context(), req.ConversationID, req.Content, custom)
	if err != nil {
		s.logger.Error("analysis failed", "conversation_id", req.ConversationID, "error", err)
		writeError(w, oracleErrorStatus(err), oracleErrorMessage(err))
		return
	}

	id := s.persistResult(r, res)

	writeJSON(w, http.StatusOK, map[string]any{
		"analysisId": id,
		"result":     res,
	})
}

// resolvePrompt prefers the request's custom prompt, then the stored one.
// An empty return means the built-in tier templates apply.
func (s *Server) resolvePrompt(r *http.Request, custom string) (string, error) {
	if strings.TrimSpace(custom) != "" {
		return custom, nil
	}
	text, found, err := s.db.GetPrompt(r.Context())
	if err != nil {
		return "", err
	}
	if found {
		return text, nil
	}
	return "", nil
}

func (s *Server) persistResult(r *http.Request, res *analyzer.Result) string {
	rec := store.AnalysisRecord{
		ConversationID: res.ConversationID,
		Analysis:       res.Analysis,
	}
	id, err := s.db.SaveAnalysis(r.Context(), rec)
	if err != nil {
		s.logger.Error("failed to persist analysis", "conversation_id", res.ConversationID, "error", err)
		return ""
	}
	if s.bus != nil {
		s.bus.Publish(bus.SubjectAnalysisStored, bus.AnalysisStoredEvent{
			AnalysisID:     id.String(),
			ConversationID: res.ConversationID,
			OverallScore:   res.Analysis.OverallScore,
			TotalBlocks:    res.TotalBlocks,
			Timestamp:      res.Timestamp.Format(time.RFC3339),
		})
	}
	return id.String()
}

func oracleErrorStatus(err error) int {
	var oe *openai.Error
	if !errors.As(err, &oe) {
		return http.StatusInternalServerError
	}
	switch oe.Kind {
	case openai.KindAuth:
		return http.StatusUnauthorized
	case openai.KindRateLimited:
		return http.StatusTooManyRequests
	case openai.KindTimeout:
		return http.StatusGatewayTimeout
	case openai.KindTruncated:
		return http.StatusRequestEntityTooLarge
	case openai.KindTransport:
		return http.StatusBadGateway
	case openai.KindHTTP:
		if oe.Status >= 400 {
			return oe.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func oracleErrorMessage(err error) string {
	var oe *openai.Error
	if errors.As(err, &oe) {
		if hint := oe.Remediation(); hint != "" {
			return hint
		}
		return oe.Message
	}
	return "analysis failed"
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	recs, err := s.db.RecentAnalyses(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list analyses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": recs, "count": len(recs)})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	rec, err := s.db.LatestAnalysisByConversation(r.Context(), conversationID)
	if err != nil {
		s.logger.Error("failed to fetch analysis", "conversation_id", conversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch analysis")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no analysis for conversation")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getPrompt(w http.ResponseWriter, r *http.Request) {
	text, found, err := s.db.GetPrompt(r.Context())
	if err != nil {
		s.logger.Error("failed to load prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load prompt")
		return
	}
	source := "custom"
	if !found {
		text = prompt.DefaultAuditorPrompt
		source = "default"
	}
	writeJSON(w, http.StatusOK, map[string]string{"promptText": text, "source": source})
}

type savePromptRequest struct {
	PromptText string `json:"promptText"`
}

func (s *Server) savePrompt(w http.ResponseWriter, r *http.Request) {
	var req savePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.PromptText) == "" {
		writeError(w, http.StatusBadRequest, "promptText is required")
		return
	}
	if err := s.db.SavePrompt(r.Context(), req.PromptText); err != nil {
		s.logger.Error("failed to save prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save prompt")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
