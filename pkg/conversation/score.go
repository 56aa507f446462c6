package conversation

import "strings"

// decisionKeywords signal decisions or facts worth preserving through
// compression.
var decisionKeywords = []string{
	"decided",
	"agreed",
	"must",
	"requirement",
	"important",
	"error",
	"fix",
	"breaking",
	"critical",
}

// EstimateTokens returns a rough token count (~4 chars per token, minimum 1).
func EstimateTokens(text string) int {
	if n := len(text) / 4; n > 1 {
		return n
	}
	return 1
}

// ScoreImportance scores a message 0.0-1.0 from role, content signals, and
// its position in the history. Pure function of its four inputs.
//
// Factors:
//   - recency: 0.0 (oldest) to 0.3 (newest)
//   - role weight: assistant 0.2, user 0.15, other 0.1
//   - fenced code block: +0.2
//   - decision keyword: +0.15
//   - substantive length (>200 chars): +0.1
func ScoreImportance(role, content string, index, total int) float64 {
	score := 0.0

	denom := total - 1
	if denom < 1 {
		denom = 1
	}
	score += 0.3 * float64(index) / float64(denom)

	switch role {
	case "assistant":
		score += 0.2
	case "user":
		score += 0.15
	default:
		score += 0.1
	}

	if strings.Contains(content, "```") {
		score += 0.2
	}

	if containsDecisionKeyword(content) {
		score += 0.15
	}

	if len(content) > 200 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func containsDecisionKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range decisionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
