package prompt

// SystemInstruction is the fixed system message sent with every scoring call.
const SystemInstruction = "You are an expert in conversation quality analysis. Return ONLY valid JSON with the EXACT field names specified in the prompt. Use English field names."

// fullJSONStructure is the response skeleton shown to the oracle in the full
// tier. Field names must match analyzer's reconciliation keys exactly.
const fullJSONStructure = `
{
  "overallScore": 0-100,
  "mission": "mission text",
  "adherenceToMission": 0-100,
  "adherenceToMissionReason": "explanation",
  "contextCoherence": 0-100,
  "contextCoherenceReason": "explanation",
  "guidelineCompliance": 0-100,
  "guidelineComplianceReason": "explanation",
  "responseQuality": 0-100,
  "responseQualityReason": "explanation",
  "blockAnalysis": [
    {
      "blockNumber": 1,
      "messageCount": 2,
      "messages": ["msg1", "msg2"],
      "score": 0-100,
      "scoreReason": "explanation",
      "missionAlignment": "text",
      "issues": ["issue1"],
      "strengths": ["strength1"],
      "detailedFeedback": "feedback"
    }
  ],
  "deviations": ["deviation1"],
  "suggestions": ["suggestion1"],
  "summary": "summary",
  "detailedReport": "report"
}`

// DefaultAuditorPrompt is the editable prompt template stored in the prompt
// config row when none has been saved yet. It uses the same placeholders the
// assembler substitutes in custom templates.
const DefaultAuditorPrompt = `You are an auditor specialised in quality analysis of AI sales and lead-qualification agent conversations. Your job is to rigorously evaluate each interaction, identifying strengths, failures and improvement opportunities.

## ANALYSIS CONTEXT

**Agent mission:**
{{MISSION}}

**Configured prompt templates:**
{{PROMPT_TEMPLATES}}

**Configured transition tools:**
{{TRANSITION_TOOLS}}

**AI message blocks under analysis:**
{{AI_BLOCKS}}

## INSTRUCTIONS

1. Analyse ALL message blocks provided in the AI blocks above.
2. Judge each AI response against the mission and the configured templates.
3. Identify trends across the conversation, improvements or regressions.
4. Be constructive: criticism must come with suggestions.
5. Stay objective: base findings on facts, not impressions.
6. Consider context: check whether each AI reply is grounded in the conversation so far.

Return the JSON evaluation with the exact English field names:
` + fullJSONStructure
