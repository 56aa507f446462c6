package textindex

import (
	"regexp"
	"strings"
	"unicode"
)

// identPattern matches identifier-like words: a leading letter or underscore
// followed by letters, digits, and underscores. Underscored identifiers stay
// whole so exact-name queries match.
var identPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)

// Tokenize splits text into lowercase index terms. Each identifier is kept
// as a single term, and camelCase/PascalCase/snake_case sub-parts are emitted
// as additional terms so that partial-identifier queries still match
// (e.g. "getUserName" yields "getusername", "get", "user", "name").
func Tokenize(text string) []string {
	tokens := identPattern.FindAllString(text, -1)
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		lower := strings.ToLower(token)
		result = append(result, lower)
		for _, part := range splitSubTokens(token) {
			pl := strings.ToLower(part)
			if pl != lower {
				result = append(result, pl)
			}
		}
	}
	return result
}

// splitSubTokens breaks an identifier into its word parts. Underscores
// separate parts, a case change from lower to upper starts a new part, and
// an all-caps run followed by a lowercase letter splits before its last
// letter so acronyms survive ("HTTPServer" -> "HTTP", "Server"). Digit runs
// form their own parts.
func splitSubTokens(token string) []string {
	runes := []rune(token)
	n := len(runes)

	var parts []string
	start := 0
	flush := func(end int) {
		if end > start {
			parts = append(parts, string(runes[start:end]))
		}
		start = end
	}

	for i := 0; i < n; i++ {
		r := runes[i]
		if r == '_' {
			flush(i)
			start = i + 1
			continue
		}
		if i == start {
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsDigit(r) != unicode.IsDigit(prev):
			flush(i)
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
		case unicode.IsLower(r) && unicode.IsUpper(prev) && i-start > 1:
			flush(i - 1)
		}
	}
	flush(n)

	return parts
}
