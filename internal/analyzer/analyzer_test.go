package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/MikeSquared-Agency/anderson/internal/openai"
	"github.com/MikeSquared-Agency/anderson/internal/transcript"
)

const testTranscript = "<mission>Qualify leads</mission>\n" +
	"🧠 CONVERSATION HISTORY:\n" +
	"human: Hi\n" +
	"ai: Hello, how can I help?\n" +
	"human: I need pricing\n" +
	"ai: Our plans start at $10\n" +
	"ai: Would you like details?"

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// oracleServer returns an httptest server that replies with the given
// analysis JSON as the completion content.
func oracleServer(t *testing.T, analysisJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"content": analysisJSON},
					"finish_reason": "stop",
				},
			},
		})
	}))
}

func newTestAnalyzer(serverURL string) *Analyzer {
	c := openai.NewClient("test-key", "test-model")
	c.SetBaseURL(serverURL)
	return New(c, discardLogger())
}

func TestAnalyze_WellFormedResponse(t *testing.T) {
	server := oracleServer(t, `{
		"overallScore": 85,
		"mission": "oracle-invented mission",
		"adherenceToMission": 80, "adherenceToMissionReason": "good",
		"contextCoherence": 90, "contextCoherenceReason": "coherent",
		"guidelineCompliance": 75, "guidelineComplianceReason": "ok",
		"responseQuality": 88, "responseQualityReason": "solid",
		"blockAnalysis": [
			{"blockNumber": 1, "messageCount": 99, "messages": ["fabricated"], "score": 70, "scoreReason": "fine", "missionAlignment": "aligned", "issues": ["slow"], "strengths": ["polite"], "detailedFeedback": "fb"},
			{"blockNumber": 2, "score": 95, "scoreReason": "great"}
		],
		"deviations": ["d1"], "suggestions": ["s1"],
		"summary": "sum", "detailedReport": "report"
	}`)
	defer server.Close()

	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-1", testTranscript, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.TotalBlocks != 2 {
		t.Fatalf("total blocks = %d, want 2", res.TotalBlocks)
	}
	a := res.Analysis
	if a.OverallScore != 85 {
		t.Errorf("overall score = %d", a.OverallScore)
	}
	// The extracted mission wins over the oracle's.
	if a.Mission != "Qualify leads" {
		t.Errorf("mission = %q", a.Mission)
	}
	if len(a.BlockAnalysis) != 2 {
		t.Fatalf("block analysis length = %d", len(a.BlockAnalysis))
	}
	// Factual fields come from ground truth, never the oracle.
	b1 := a.BlockAnalysis[0]
	if b1.MessageCount != 1 || !reflect.DeepEqual(b1.Messages, []string{"Hello, how can I help?"}) {
		t.Errorf("block 1 facts = %d %v", b1.MessageCount, b1.Messages)
	}
	if !reflect.DeepEqual(b1.HumanMessages, []string{"Hi"}) {
		t.Errorf("block 1 human = %v", b1.HumanMessages)
	}
	if b1.Score != 70 || b1.ScoreReason != "fine" || len(b1.Issues) != 1 {
		t.Errorf("block 1 judgment = %+v", b1)
	}
	b2 := a.BlockAnalysis[1]
	if b2.MessageCount != 2 || len(b2.Messages) != 2 {
		t.Errorf("block 2 facts = %d %v", b2.MessageCount, b2.Messages)
	}
	if b2.Score != 95 {
		t.Errorf("block 2 score = %d", b2.Score)
	}
}

func TestAnalyze_ShortBlockAnalysis_Padded(t *testing.T) {
	server := oracleServer(t, `{"overallScore": 50, "blockAnalysis": [{"score": 40, "scoreReason": "only one"}]}`)
	defer server.Close()

	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-2", testTranscript, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Analysis.BlockAnalysis) != 2 {
		t.Fatalf("block analysis length = %d, want padded to 2", len(res.Analysis.BlockAnalysis))
	}
	pad := res.Analysis.BlockAnalysis[1]
	if pad.Score != 0 || pad.ScoreReason != noExplanation {
		t.Errorf("padded entry = %+v", pad)
	}
	if pad.MessageCount != 2 || len(pad.Messages) != 2 {
		t.Errorf("padded entry lost ground truth: %+v", pad)
	}
	if pad.Issues == nil || pad.Strengths == nil {
		t.Errorf("padded arrays should be empty, not nil")
	}
}

func TestAnalyze_LongBlockAnalysis_Truncated(t *testing.T) {
	server := oracleServer(t, `{"blockAnalysis": [{"score":1},{"score":2},{"score":3},{"score":4}]}`)
	defer server.Close()

	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-3", testTranscript, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Analysis.BlockAnalysis) != 2 {
		t.Fatalf("block analysis length = %d, want truncated to 2", len(res.Analysis.BlockAnalysis))
	}
}

func TestAnalyze_NonNumericScores_CoercedToZero(t *testing.T) {
	server := oracleServer(t, `{"overallScore": "not-a-number", "adherenceToMission": "77", "blockAnalysis": [{"score": {"nested": true}}]}`)
	defer server.Close()

	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-4", testTranscript, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Analysis.OverallScore != 0 {
		t.Errorf("overall score = %d, want 0", res.Analysis.OverallScore)
	}
	// Numeric strings still coerce.
	if res.Analysis.AdherenceToMission != 77 {
		t.Errorf("adherence = %d, want 77", res.Analysis.AdherenceToMission)
	}
	if res.Analysis.BlockAnalysis[0].Score != 0 {
		t.Errorf("block score = %d, want 0", res.Analysis.BlockAnalysis[0].Score)
	}
}

func TestAnalyze_MissingMission_SentinelAndNoError(t *testing.T) {
	server := oracleServer(t, `{"overallScore": 10}`)
	defer server.Close()

	content := "🧠 CONVERSATION HISTORY:\nhuman: Hi\nai: Hello"
	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-5", content, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Analysis.Mission != transcript.MissionNotFound {
		t.Errorf("mission = %q, want sentinel", res.Analysis.Mission)
	}
}

func TestAnalyze_UnterminatedJSON_ReportedAsTruncation(t *testing.T) {
	server := oracleServer(t, `{"overallScore": 85, "summary": "cut off mid str`)
	defer server.Close()

	_, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-6", testTranscript, "")
	if openai.KindOf(err) != openai.KindTruncated {
		t.Fatalf("expected truncation classification, got %v", err)
	}
}

func TestAnalyze_MalformedJSON_ParseError(t *testing.T) {
	server := oracleServer(t, `this is not json at all`)
	defer server.Close()

	_, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-7", testTranscript, "")
	var oe *openai.Error
	if !errors.As(err, &oe) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if oe.Kind != openai.KindParse && oe.Kind != openai.KindTruncated {
		t.Fatalf("kind = %v", oe.Kind)
	}
}

func TestAnalyze_CodeFencedJSON_Accepted(t *testing.T) {
	server := oracleServer(t, "```json\n{\"overallScore\": 42}\n```")
	defer server.Close()

	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-8", testTranscript, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Analysis.OverallScore != 42 {
		t.Errorf("overall score = %d", res.Analysis.OverallScore)
	}
}

func TestAnalyze_EmptyConversationRegion_ZeroBlocks(t *testing.T) {
	server := oracleServer(t, `{"overallScore": 0, "blockAnalysis": []}`)
	defer server.Close()

	res, err := newTestAnalyzer(server.URL).Analyze(context.Background(), "conv-9", "<mission>m</mission>", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalBlocks != 0 || len(res.Analysis.BlockAnalysis) != 0 {
		t.Errorf("expected zero blocks, got %d / %d", res.TotalBlocks, len(res.Analysis.BlockAnalysis))
	}
}
