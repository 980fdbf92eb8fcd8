package transcript

// AIBlock is a maximal run of consecutive AI messages, paired with the human
// messages that immediately preceded it.
type AIBlock struct {
	BlockNumber   int      // 1-based, contiguous, in transcript order
	Messages      []string // AI messages, never empty
	HumanMessages []string // human context since the previous block; may be empty
}

// Segment groups the ordered message sequence into AI blocks in a single
// left-to-right pass. A block boundary is the moment a human message arrives
// after at least one AI message has accumulated; the triggering human message
// belongs to the next block's context, not the block just emitted. Trailing
// AI messages flush as a final block. A transcript with no AI turns yields no
// blocks, and one that opens with AI turns yields a first block with empty
// human context.
func Segment(msgs []Message) []AIBlock {
	var blocks []AIBlock
	var pendingAI, humanBuf []string

	for _, m := range msgs {
		switch m.Speaker {
		case SpeakerHuman:
			if len(pendingAI) > 0 {
				blocks = append(blocks, AIBlock{
					BlockNumber:   len(blocks) + 1,
					Messages:      pendingAI,
					HumanMessages: humanBuf,
				})
				pendingAI = nil
				humanBuf = nil
			}
			humanBuf = append(humanBuf, m.Text)
		case SpeakerAI:
			pendingAI = append(pendingAI, m.Text)
		}
	}

	if len(pendingAI) > 0 {
		blocks = append(blocks, AIBlock{
			BlockNumber:   len(blocks) + 1,
			Messages:      pendingAI,
			HumanMessages: humanBuf,
		})
	}

	return blocks
}

// Blocks runs the full extract→tokenize→segment pipeline over one raw
// transcript export.
func Blocks(content string) []AIBlock {
	return Segment(Tokenize(Extract(content).Conversation))
}
