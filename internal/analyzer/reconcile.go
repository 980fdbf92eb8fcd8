package analyzer

import (
	"strconv"

	"github.com/MikeSquared-Agency/anderson/internal/transcript"
)

// noExplanation is the default for judgment text the oracle failed to return.
const noExplanation = "No explanation available"

// reconcile repairs a parsed oracle response against the ground-truth block
// list. Judgment fields are taken from the oracle by position where present;
// message content, counts and human context are always overwritten from the
// segmenter's blocks, because the oracle is untrusted for transcript facts.
// The result always carries exactly one entry per true block, whatever the
// oracle under- or over-produced.
func reconcile(raw map[string]any, blocks []transcript.AIBlock, mission string) Analysis {
	a := Analysis{
		OverallScore:              asInt(raw["overallScore"]),
		Mission:                   mission,
		AdherenceToMission:        asInt(raw["adherenceToMission"]),
		AdherenceToMissionReason:  asString(raw["adherenceToMissionReason"], noExplanation),
		ContextCoherence:          asInt(raw["contextCoherence"]),
		ContextCoherenceReason:    asString(raw["contextCoherenceReason"], noExplanation),
		GuidelineCompliance:       asInt(raw["guidelineCompliance"]),
		GuidelineComplianceReason: asString(raw["guidelineComplianceReason"], noExplanation),
		ResponseQuality:           asInt(raw["responseQuality"]),
		ResponseQualityReason:     asString(raw["responseQualityReason"], noExplanation),
		Deviations:                asStringSlice(raw["deviations"]),
		Suggestions:               asStringSlice(raw["suggestions"]),
		Summary:                   asString(raw["summary"], "Analysis not available"),
		DetailedReport:            asString(raw["detailedReport"], "Detailed report not available"),
	}

	entries, _ := raw["blockAnalysis"].([]any)

	a.BlockAnalysis = make([]BlockScore, len(blocks))
	for i, b := range blocks {
		score := BlockScore{
			BlockNumber:   b.BlockNumber,
			MessageCount:  len(b.Messages),
			Messages:      b.Messages,
			HumanMessages: b.HumanMessages,
			ScoreReason:   noExplanation,
			Issues:        []string{},
			Strengths:     []string{},
		}
		if i < len(entries) {
			if entry, ok := entries[i].(map[string]any); ok {
				score.Score = asInt(entry["score"])
				score.ScoreReason = asString(entry["scoreReason"], noExplanation)
				score.MissionAlignment = asString(entry["missionAlignment"], "")
				score.Issues = asStringSlice(entry["issues"])
				score.Strengths = asStringSlice(entry["strengths"])
				score.DetailedFeedback = asString(entry["detailedFeedback"], "")
			}
		}
		a.BlockAnalysis[i] = score
	}

	return a
}

// asInt coerces an untyped JSON value to int, defaulting to 0 for anything
// non-numeric.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return 0
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
