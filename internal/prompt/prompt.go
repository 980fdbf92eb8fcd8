// Package prompt renders scoring requests for the oracle. Verbosity is
// tiered by block count so response size and call latency stay inside the
// orchestrator's wall-clock budget on long transcripts.
package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/anderson/internal/transcript"
)

// Tier selects one of the built-in prompt verbosity levels.
type Tier int

const (
	TierFull Tier = iota
	TierConcise
	TierUltraConcise
)

func (t Tier) String() string {
	switch t {
	case TierConcise:
		return "concise"
	case TierUltraConcise:
		return "ultra-concise"
	default:
		return "full"
	}
}

// TierFor maps a block count to its verbosity tier. Boundaries are exactly
// as observed in production: 8 and below full, 9 concise, 10 and above
// ultra-concise.
func TierFor(blockCount int) Tier {
	switch {
	case blockCount >= 10:
		return TierUltraConcise
	case blockCount > 8:
		return TierConcise
	default:
		return TierFull
	}
}

// MaxTokensFor returns the completion-token ceiling for a block count. This
// is a latency/cost control, not a correctness control.
func MaxTokensFor(blockCount int) int {
	switch {
	case blockCount >= 15:
		return 8000
	case blockCount >= 10:
		return 7000
	case blockCount >= 5:
		return 5000
	case blockCount >= 3:
		return 4000
	default:
		return 3000
	}
}

// Input carries everything the assembler needs for one scoring request.
type Input struct {
	Mission         string
	PromptTemplates string
	TransitionTools string
	Blocks          []transcript.AIBlock
	CustomTemplate  string // placeholder-substituted when non-empty
}

// Supported placeholders in custom templates. A placeholder absent from the
// template is simply not substituted.
const (
	placeholderMission         = "{{MISSION}}"
	placeholderPromptTemplates = "{{PROMPT_TEMPLATES}}"
	placeholderTransitionTools = "{{TRANSITION_TOOLS}}"
	placeholderAIBlocks        = "{{AI_BLOCKS}}"
	placeholderConversation    = "{{CONVERSATION_BLOCKS}}" // legacy alias for AI_BLOCKS
)

// Assemble renders one scoring request body. With a custom template it does
// literal placeholder substitution; otherwise it picks the built-in tier for
// the block count. Every rendering states the exact required block count,
// which the response validator enforces.
func Assemble(in Input) string {
	rendered := RenderBlocks(in.Blocks)

	if in.CustomTemplate != "" {
		r := strings.NewReplacer(
			placeholderMission, in.Mission,
			placeholderPromptTemplates, orDefault(in.PromptTemplates, "No prompt templates configured"),
			placeholderTransitionTools, orDefault(in.TransitionTools, "No transition tools configured"),
			placeholderAIBlocks, rendered,
			placeholderConversation, rendered,
		)
		return r.Replace(in.CustomTemplate) + "\n\n" + requiredCountLine(len(in.Blocks))
	}

	switch TierFor(len(in.Blocks)) {
	case TierUltraConcise:
		return ultraConcisePrompt(in.Blocks, rendered)
	case TierConcise:
		return concisePrompt(in.Blocks, rendered)
	default:
		return fullPrompt(in.Blocks, rendered)
	}
}

// RenderBlocks renders the block list as deterministic labeled sections.
func RenderBlocks(blocks []transcript.AIBlock) string {
	sections := make([]string, 0, len(blocks))
	for _, b := range blocks {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Block %d (%d message%s):\n", b.BlockNumber, len(b.Messages), plural(len(b.Messages)))
		if len(b.HumanMessages) > 0 {
			sb.WriteString("Human context:\n")
			sb.WriteString(strings.Join(b.HumanMessages, "\n"))
			sb.WriteString("\n\n")
		}
		sb.WriteString("AI messages:\n")
		sb.WriteString(strings.Join(b.Messages, "\n"))
		sections = append(sections, sb.String())
	}
	return strings.Join(sections, "\n\n")
}

func fullPrompt(blocks []transcript.AIBlock, rendered string) string {
	return fmt.Sprintf(`You are an expert in AI agent conversation quality analysis.

%s

Analyse ALL %d blocks of consecutive AI messages.

IMPORTANT: return EXACTLY this JSON format with these English field names:
%s

Every block in blockAnalysis MUST have:
- blockNumber: the block index (1 to %d)
- messageCount: how many messages it contains
- messages: the block's messages
- score: 0-100
- scoreReason: detailed explanation
- missionAlignment: how it aligns with the mission
- issues: identified problems
- strengths: identified strengths
- detailedFeedback: deep analysis of the block

%s`, rendered, len(blocks), fullJSONStructure, len(blocks), requiredCountLine(len(blocks)))
}

func concisePrompt(blocks []transcript.AIBlock, rendered string) string {
	return fmt.Sprintf(`Analyse this AI conversation with %d blocks CONCISELY.

%s

Return JSON with fields: overallScore, mission, adherenceToMission, adherenceToMissionReason (brief), contextCoherence, contextCoherenceReason (brief), guidelineCompliance, guidelineComplianceReason (brief), responseQuality, responseQualityReason (brief), blockAnalysis (%d objects with blockNumber, messageCount, messages, brief score reason fields, issues max 2, strengths max 2, brief detailedFeedback), deviations (max 3), suggestions (max 3), summary (brief), detailedReport (brief).

%s`, len(blocks), rendered, len(blocks), requiredCountLine(len(blocks)))
}

func ultraConcisePrompt(blocks []transcript.AIBlock, rendered string) string {
	skeleton := make([]string, 0, len(blocks))
	for _, b := range blocks {
		skeleton = append(skeleton, fmt.Sprintf(
			`{"blockNumber":%d,"messageCount":%d,"messages":[],"score":0-100,"scoreReason":"1 sentence","missionAlignment":"ok/problem","issues":["max 1"],"strengths":["max 1"],"detailedFeedback":"1 sentence"}`,
			b.BlockNumber, len(b.Messages)))
	}

	return fmt.Sprintf(`Analyse this AI conversation with %d blocks ULTRA FAST and CONCISELY.

%s

Return minimal JSON:
{
  "overallScore": 0-100,
  "mission": "mission",
  "adherenceToMission": 0-100,
  "adherenceToMissionReason": "1 sentence",
  "contextCoherence": 0-100,
  "contextCoherenceReason": "1 sentence",
  "guidelineCompliance": 0-100,
  "guidelineComplianceReason": "1 sentence",
  "responseQuality": 0-100,
  "responseQualityReason": "1 sentence",
  "blockAnalysis": [%s],
  "deviations": ["max 2"],
  "suggestions": ["max 2"],
  "summary": "2 sentences",
  "detailedReport": "3 sentences"
}

Be EXTREMELY CONCISE. %s`, len(blocks), rendered, strings.Join(skeleton, ","), requiredCountLine(len(blocks)))
}

func requiredCountLine(n int) string {
	return fmt.Sprintf("CRITICAL: blockAnalysis MUST contain EXACTLY %d entries.", n)
}

var requiredCountPattern = regexp.MustCompile(`EXACTLY (\d+) entries`)

// RequiredBlockCount re-extracts the block count a rendered prompt demands.
// The validator uses it to cross-check renderings against the ground-truth
// block list.
func RequiredBlockCount(rendered string) (int, bool) {
	m := requiredCountPattern.FindStringSubmatch(rendered)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
