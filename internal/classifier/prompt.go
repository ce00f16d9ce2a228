package classifier

import "fmt"

// Fallback texts used when the model gives us nothing usable.
const (
	UnknownExplanation = "Could not determine scam status from AI response."
	NoExplanation      = "No explanation provided."
)

const promptTemplate = `You are a scam detection assistant. Analyze the message below and decide how likely it is to be a scam or fraud attempt.

Message:
%s

Classify it as exactly one of:
- SAFE: an ordinary, harmless message
- POTENTIAL_SCAM: shows some scam indicators
- HIGHLY_LIKELY_SCAM: strongly matches known scam patterns

Also give a confidence percentage between 0 and 100. As a guideline, SAFE is usually 0-25, POTENTIAL_SCAM 25-50 and HIGHLY_LIKELY_SCAM 50-100, but report your real confidence.

Respond with a single line in exactly this format and nothing else:
LEVEL|PERCENTAGE|EXPLANATION

where EXPLANATION is one short sentence explaining your verdict.`

// BuildPrompt embeds the user message verbatim into the fixed classification
// instruction. The message is treated as data; no escaping is performed.
func BuildPrompt(messageText string) string {
	return fmt.Sprintf(promptTemplate, messageText)
}
