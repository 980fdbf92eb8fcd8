package transcript

import "strings"

// Speaker identifies who produced a message.
type Speaker int

const (
	SpeakerHuman Speaker = iota
	SpeakerAI
)

func (s Speaker) String() string {
	if s == SpeakerHuman {
		return "human"
	}
	return "ai"
}

// Message is one turn in the conversation region.
type Message struct {
	Speaker Speaker
	Text    string
}

// Tokenize scans the conversation region and returns messages in source
// order. A turn starts at a line beginning with "human:" or "ai:"
// (case-insensitive) and runs until the line before the next marker, so a
// single message may span multiple lines. Whitespace-only bodies are dropped
// without breaking turn sequencing. Text before the first marker is ignored.
func Tokenize(conversation string) []Message {
	var msgs []Message
	var speaker Speaker
	var body []string
	open := false

	flush := func() {
		if !open {
			return
		}
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			msgs = append(msgs, Message{Speaker: speaker, Text: text})
		}
		body = body[:0]
	}

	for _, line := range strings.Split(conversation, "\n") {
		if sp, rest, ok := turnMarker(line); ok {
			flush()
			open = true
			speaker = sp
			body = append(body, rest)
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	flush()

	return msgs
}

// turnMarker reports whether a line opens a new turn, returning the speaker
// and the remainder of the line after the marker.
func turnMarker(line string) (Speaker, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "human:"):
		return SpeakerHuman, trimmed[len("human:"):], true
	case strings.HasPrefix(lower, "ai:"):
		return SpeakerAI, trimmed[len("ai:"):], true
	}
	return 0, "", false
}
