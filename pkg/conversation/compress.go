package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// importanceThreshold separates messages kept verbatim during compression
// from those distilled to key facts.
const importanceThreshold = 0.7

const summaryHeader = "Summary of earlier conversation:"

const summaryDivider = "\n---\n"

const truncationMarker = "\n[...truncated]"

var whitespacePattern = regexp.MustCompile(`\s+`)

// truncateToRune cuts s at max bytes, backing up so no multi-byte rune is
// split at the boundary.
func truncateToRune(s string, max int) string {
	if max >= len(s) {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// CompressMessages compresses a batch of scored messages into a single
// summary string. Messages at or above the importance threshold are kept
// verbatim as "[role]: content"; the rest are distilled to questions,
// decision-keyword lines, and code blocks. The combined text is truncated
// to maxChars with an explicit marker. Pure function, no side effects.
func CompressMessages(msgs []Message, maxChars int) string {
	var preserved []string
	var toDistill []Message

	for _, msg := range msgs {
		if msg.Importance >= importanceThreshold {
			preserved = append(preserved, "["+msg.Role+"]: "+msg.Content)
		} else {
			toDistill = append(toDistill, msg)
		}
	}

	distilled := distillFacts(toDistill)

	var parts []string
	if distilled != "" {
		parts = append(parts, distilled)
	}
	if len(preserved) > 0 {
		parts = append(parts, "Key exchanges:\n"+strings.Join(preserved, "\n"))
	}

	combined := strings.Join(parts, summaryDivider)
	if len(combined) > maxChars {
		combined = truncateToRune(combined, maxChars) + truncationMarker
	}

	return summaryHeader + "\n" + combined
}

// distillFacts extracts key facts from low-importance messages: questions,
// fenced code blocks, and lines containing decision keywords. Short
// pleasantries (under 20 chars, no code fence) are dropped entirely. An
// unterminated code fence at message end is force-closed so no code is
// silently lost.
func distillFacts(msgs []Message) string {
	var facts []string

	for _, msg := range msgs {
		content := msg.Content

		if len(content) < 20 && !strings.Contains(content, "```") {
			continue
		}

		inCodeBlock := false
		var codeLines []string

		for _, line := range strings.Split(content, "\n") {
			stripped := strings.TrimSpace(line)

			if strings.HasPrefix(stripped, "```") {
				if inCodeBlock {
					codeLines = append(codeLines, line)
					facts = append(facts, strings.Join(codeLines, "\n"))
					codeLines = nil
					inCodeBlock = false
				} else {
					inCodeBlock = true
					codeLines = []string{line}
				}
				continue
			}

			if inCodeBlock {
				codeLines = append(codeLines, line)
				continue
			}

			if strings.HasSuffix(stripped, "?") {
				facts = append(facts, "["+msg.Role+"]: "+stripped)
				continue
			}

			if containsDecisionKeyword(stripped) {
				facts = append(facts, "["+msg.Role+"]: "+stripped)
			}
		}

		if inCodeBlock && len(codeLines) > 0 {
			codeLines = append(codeLines, "```")
			facts = append(facts, strings.Join(codeLines, "\n"))
		}
	}

	// Drop exact near-duplicates (whitespace-normalized, case-folded).
	seen := make(map[string]bool, len(facts))
	var unique []string
	for _, fact := range facts {
		normalized := whitespacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(fact)), " ")
		if !seen[normalized] {
			seen[normalized] = true
			unique = append(unique, fact)
		}
	}

	return strings.Join(unique, "\n")
}
