package transcript

import (
	"strings"
	"testing"
)

func TestExtract_MissionTag(t *testing.T) {
	content := "preamble\n<mission>Qualify leads</mission>\nrest"

	p := Extract(content)
	if p.Mission != "Qualify leads" {
		t.Errorf("mission = %q, want 'Qualify leads'", p.Mission)
	}
}

func TestExtract_MissionMissing_UsesSentinel(t *testing.T) {
	p := Extract("no tags here at all")
	if p.Mission != MissionNotFound {
		t.Errorf("mission = %q, want sentinel %q", p.Mission, MissionNotFound)
	}
}

func TestExtract_MissionMultiline_Trimmed(t *testing.T) {
	content := "<mission>\n  Qualify leads\n  and book meetings\n</mission>"

	p := Extract(content)
	if !strings.HasPrefix(p.Mission, "Qualify leads") || !strings.HasSuffix(p.Mission, "book meetings") {
		t.Errorf("mission = %q", p.Mission)
	}
}

func TestExtract_TransitionTools_StrictTag(t *testing.T) {
	content := "<transition_tools>tool_a, tool_b</transition_tools>"

	p := Extract(content)
	if p.TransitionTools != "tool_a, tool_b" {
		t.Errorf("transition tools = %q", p.TransitionTools)
	}
}

func TestExtract_TransitionTools_HeadingFallback(t *testing.T) {
	content := "TRANSITION TOOLS:\ntool_a\ntool_b\nPROMPT TEMPLATES:\ntemplate text"

	p := Extract(content)
	if p.TransitionTools != "tool_a\ntool_b" {
		t.Errorf("transition tools = %q", p.TransitionTools)
	}
	if p.PromptTemplates != "template text" {
		t.Errorf("prompt templates = %q", p.PromptTemplates)
	}
}

func TestExtract_TransitionTools_AbsentIsEmpty(t *testing.T) {
	p := Extract("<mission>m</mission>")
	if p.TransitionTools != "" {
		t.Errorf("transition tools = %q, want empty", p.TransitionTools)
	}
	if p.PromptTemplates != "" {
		t.Errorf("prompt templates = %q, want empty", p.PromptTemplates)
	}
}

func TestExtract_ConversationRegion_BoundedByImportant(t *testing.T) {
	content := "🧠 CONVERSATION HISTORY (full):\nhuman: Hi\nai: Hello\nIMPORTANT: ignore this"

	p := Extract(content)
	if strings.Contains(p.Conversation, "IMPORTANT") {
		t.Errorf("conversation contains trailing marker: %q", p.Conversation)
	}
	if !strings.Contains(p.Conversation, "human: Hi") || !strings.Contains(p.Conversation, "ai: Hello") {
		t.Errorf("conversation = %q", p.Conversation)
	}
}

func TestExtract_ConversationRegion_RunsToEnd(t *testing.T) {
	content := "🧠 CONVERSATION HISTORY:\nhuman: Hi\nai: Hello"

	p := Extract(content)
	if !strings.Contains(p.Conversation, "ai: Hello") {
		t.Errorf("conversation = %q", p.Conversation)
	}
}

func TestExtract_ConversationHeadingMissing_EmptyRegion(t *testing.T) {
	p := Extract("<mission>m</mission>\nhuman: Hi\nai: Hello")
	if p.Conversation != "" {
		t.Errorf("conversation = %q, want empty when heading absent", p.Conversation)
	}
	if got := Blocks("<mission>m</mission>\nhuman: Hi\nai: Hello"); len(got) != 0 {
		t.Errorf("expected zero blocks without a conversation heading, got %d", len(got))
	}
}

func TestBlocks_EndToEnd(t *testing.T) {
	content := "<mission>Qualify leads</mission>\n" +
		"🧠 CONVERSATION HISTORY:\n" +
		"human: Hi\n" +
		"ai: Hello, how can I help?\n" +
		"human: I need pricing\n" +
		"ai: Our plans start at $10\n" +
		"ai: Would you like details?"

	if m := Extract(content).Mission; m != "Qualify leads" {
		t.Fatalf("mission = %q", m)
	}

	blocks := Blocks(content)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if len(blocks[0].Messages) != 1 || blocks[0].Messages[0] != "Hello, how can I help?" {
		t.Errorf("block 1 messages = %v", blocks[0].Messages)
	}
	if len(blocks[0].HumanMessages) != 1 || blocks[0].HumanMessages[0] != "Hi" {
		t.Errorf("block 1 human context = %v", blocks[0].HumanMessages)
	}
	if len(blocks[1].Messages) != 2 || blocks[1].Messages[0] != "Our plans start at $10" || blocks[1].Messages[1] != "Would you like details?" {
		t.Errorf("block 2 messages = %v", blocks[1].Messages)
	}
	if len(blocks[1].HumanMessages) != 1 || blocks[1].HumanMessages[0] != "I need pricing" {
		t.Errorf("block 2 human context = %v", blocks[1].HumanMessages)
	}
}
