package transcript

import (
	"regexp"
	"strings"
)

// MissionNotFound is returned when the transcript carries no <mission> tag.
// Scoring still proceeds with this sentinel so a malformed export never
// blocks analysis.
const MissionNotFound = "Mission not found in transcript"

// Parts holds the regions pulled out of one raw transcript export.
type Parts struct {
	Mission         string
	TransitionTools string
	PromptTemplates string
	Conversation    string
}

// Each field is extracted by trying its patterns in order; the first pattern
// whose capture group is non-empty after trimming wins. Strict tag-delimited
// patterns come first, loose heading-based fallbacks second.
var (
	missionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<mission>(.*?)</mission>`),
	}
	transitionToolPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<transition_tools>(.*?)</transition_tools>`),
		regexp.MustCompile(`(?is)TRANSITION TOOLS[:\s]*(.*?)(?:</|PROMPT TEMPLATES|🧠 CONVERSATION|$)`),
	}
	promptTemplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<prompt_templates>(.*?)</prompt_templates>`),
		regexp.MustCompile(`(?is)PROMPT TEMPLATES[:\s]*(.*?)(?:</|🧠 CONVERSATION|$)`),
	}
	conversationPattern = regexp.MustCompile(`(?s)🧠 CONVERSATION HISTORY[^:]*:(.*?)(?:IMPORTANT:|$)`)
)

// Extract pulls the mission, transition tools, prompt templates and the raw
// conversation region out of a transcript export. Missing regions are soft
// failures: the mission falls back to MissionNotFound, everything else to the
// empty string. No input ever produces an error.
func Extract(content string) Parts {
	p := Parts{
		Mission:         firstMatch(content, missionPatterns),
		TransitionTools: firstMatch(content, transitionToolPatterns),
		PromptTemplates: firstMatch(content, promptTemplatePatterns),
	}
	if p.Mission == "" {
		p.Mission = MissionNotFound
	}
	if m := conversationPattern.FindStringSubmatch(content); m != nil {
		p.Conversation = m[1]
	}
	return p
}

func firstMatch(content string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(content); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}
