package conversation

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func msg(role, content string, importance float64) Message {
	return Message{Role: role, Content: content, Importance: importance}
}

func TestCompressPreservesImportant(t *testing.T) {
	out := CompressMessages([]Message{
		msg("user", "we decided to use postgres for storage", 0.8),
		msg("assistant", "okay", 0.2),
	}, 2000)

	if !strings.HasPrefix(out, summaryHeader) {
		t.Errorf("missing summary header: %q", out)
	}
	if !strings.Contains(out, "[user]: we decided to use postgres for storage") {
		t.Errorf("important message not preserved verbatim: %q", out)
	}
	if !strings.Contains(out, "Key exchanges:") {
		t.Errorf("missing key exchanges block: %q", out)
	}
}

func TestCompressDropsPleasantries(t *testing.T) {
	out := CompressMessages([]Message{
		msg("user", "hi!", 0.1),
		msg("assistant", "hello", 0.1),
		msg("user", "thanks", 0.1),
	}, 2000)

	if strings.Contains(out, "hi!") || strings.Contains(out, "hello") {
		t.Errorf("pleasantries should be dropped: %q", out)
	}
}

func TestCompressKeepsQuestions(t *testing.T) {
	out := CompressMessages([]Message{
		msg("user", "some filler text here\nhow should we handle retries?", 0.3),
	}, 2000)

	if !strings.Contains(out, "[user]: how should we handle retries?") {
		t.Errorf("question not distilled: %q", out)
	}
	if strings.Contains(out, "some filler text here") {
		t.Errorf("filler should not be distilled: %q", out)
	}
}

func TestCompressKeepsKeywordLines(t *testing.T) {
	out := CompressMessages([]Message{
		msg("assistant", "random chatter about things\nthe fix is to bump the timeout", 0.3),
	}, 2000)

	if !strings.Contains(out, "[assistant]: the fix is to bump the timeout") {
		t.Errorf("keyword line not distilled: %q", out)
	}
}

func TestCompressKeepsCodeBlocks(t *testing.T) {
	content := "here is the snippet\n```go\nfunc retry() error {\n\treturn nil\n}\n```\nhope that helps"
	out := CompressMessages([]Message{msg("assistant", content, 0.3)}, 2000)

	if !strings.Contains(out, "func retry() error {") {
		t.Errorf("code block not preserved: %q", out)
	}
}

func TestCompressForceClosesUnterminatedFence(t *testing.T) {
	content := "partial snippet follows\n```python\nprint('lost?')"
	out := CompressMessages([]Message{msg("assistant", content, 0.3)}, 2000)

	if !strings.Contains(out, "print('lost?')") {
		t.Errorf("unterminated code block was silently dropped: %q", out)
	}
}

func TestCompressDeduplicatesFacts(t *testing.T) {
	out := CompressMessages([]Message{
		msg("user", "filler filler filler\nWhat is the   plan?", 0.3),
		msg("user", "more filler text here\nwhat is the plan?", 0.3),
	}, 2000)

	if strings.Count(strings.ToLower(out), "what is the") != 1 {
		t.Errorf("near-duplicate facts not deduplicated: %q", out)
	}
}

func TestCompressTruncates(t *testing.T) {
	out := CompressMessages([]Message{
		msg("user", strings.Repeat("x", 500), 0.8),
		msg("assistant", strings.Repeat("y", 500), 0.8),
	}, 200)

	if !strings.HasSuffix(out, truncationMarker) {
		t.Errorf("expected truncation marker at end: %q", out[len(out)-40:])
	}
	// header + 200 chars + marker
	if len(out) > len(summaryHeader)+1+200+len(truncationMarker) {
		t.Errorf("output too long: %d chars", len(out))
	}
}

func TestCompressTruncatesOnRuneBoundary(t *testing.T) {
	// "[user]: " is 8 bytes, so a 201-byte cut lands mid-rune in the
	// two-byte é run unless the truncation backs up to a boundary.
	out := CompressMessages([]Message{
		msg("user", strings.Repeat("é", 300), 0.8),
	}, 201)

	if !utf8.ValidString(out) {
		t.Errorf("truncated summary is not valid UTF-8: %q", out)
	}
	if !strings.HasSuffix(out, truncationMarker) {
		t.Errorf("expected truncation marker: %q", out)
	}
}

func TestCompressEmptyInput(t *testing.T) {
	out := CompressMessages(nil, 2000)
	if !strings.HasPrefix(out, summaryHeader) {
		t.Errorf("expected header even for empty input: %q", out)
	}
}
