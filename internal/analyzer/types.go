package analyzer

import "time"

// BlockScore is the reconciled score for one AI block. Message content and
// counts always come from the segmenter's ground truth; only the judgment
// fields come from the oracle.
type BlockScore struct {
	BlockNumber      int      `json:"blockNumber"`
	MessageCount     int      `json:"messageCount"`
	Messages         []string `json:"messages"`
	HumanMessages    []string `json:"humanMessages"`
	Score            int      `json:"score"`
	ScoreReason      string   `json:"scoreReason"`
	MissionAlignment string   `json:"missionAlignment"`
	Issues           []string `json:"issues"`
	Strengths        []string `json:"strengths"`
	DetailedFeedback string   `json:"detailedFeedback"`
}

// Analysis is the full reconciled scoring result for one transcript.
type Analysis struct {
	OverallScore              int          `json:"overallScore"`
	Mission                   string       `json:"mission"`
	AdherenceToMission        int          `json:"adherenceToMission"`
	AdherenceToMissionReason  string       `json:"adherenceToMissionReason"`
	ContextCoherence          int          `json:"contextCoherence"`
	ContextCoherenceReason    string       `json:"contextCoherenceReason"`
	GuidelineCompliance       int          `json:"guidelineCompliance"`
	GuidelineComplianceReason string       `json:"guidelineComplianceReason"`
	ResponseQuality           int          `json:"responseQuality"`
	ResponseQualityReason     string       `json:"responseQualityReason"`
	BlockAnalysis             []BlockScore `json:"blockAnalysis"`
	Deviations                []string     `json:"deviations"`
	Suggestions               []string     `json:"suggestions"`
	Summary                   string       `json:"summary"`
	DetailedReport            string       `json:"detailedReport"`
}

// Result wraps one transcript's analysis with its request metadata.
type Result struct {
	ConversationID string    `json:"conversationId"`
	Analysis       Analysis  `json:"analysis"`
	TotalBlocks    int       `json:"totalBlocksInConversation"`
	Timestamp      time.Time `json:"timestamp"`
}
