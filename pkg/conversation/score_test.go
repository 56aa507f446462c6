package conversation

import (
	"strings"
	"testing"
)

func TestScoreImportancePure(t *testing.T) {
	a := ScoreImportance("user", "please fix the login error", 3, 10)
	b := ScoreImportance("user", "please fix the login error", 3, 10)
	if a != b {
		t.Errorf("scoring is not deterministic: %f vs %f", a, b)
	}
}

func TestScoreImportanceFactors(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		content string
		index   int
		total   int
		want    float64
	}{
		{"oldest plain user", "user", "hello there you", 0, 10, 0.15},
		{"newest plain user", "user", "hello there you", 9, 10, 0.3 + 0.15},
		{"assistant role", "assistant", "hello there you", 0, 10, 0.2},
		{"other role", "tool", "hello there you", 0, 10, 0.1},
		{"code fence", "user", "```go\nfunc main() {}\n```", 0, 10, 0.15 + 0.2},
		{"decision keyword", "user", "we decided to ship", 0, 10, 0.15 + 0.15},
		{"single message guards division", "user", "hi", 0, 1, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreImportance(tt.role, tt.content, tt.index, tt.total)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("ScoreImportance = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScoreImportanceLongContent(t *testing.T) {
	long := strings.Repeat("x", 201)
	short := strings.Repeat("x", 200)
	if got := ScoreImportance("user", long, 0, 10); got != 0.15+0.1 {
		t.Errorf("long content score = %f, want %f", got, 0.15+0.1)
	}
	if got := ScoreImportance("user", short, 0, 10); got != 0.15 {
		t.Errorf("200-char content score = %f, want %f", got, 0.15)
	}
}

func TestScoreImportanceClamped(t *testing.T) {
	// All bonuses together reach 0.95; the clamp is a safety bound.
	content := "```code``` we decided this is a critical requirement " + strings.Repeat("x", 200)
	got := ScoreImportance("assistant", content, 9, 10)
	if got > 1.0 {
		t.Errorf("score %f exceeds 1.0", got)
	}
	if got != 0.95 {
		t.Errorf("score = %f, want 0.95", got)
	}
}

func TestScoreImportanceKeywordCaseInsensitive(t *testing.T) {
	if got := ScoreImportance("user", "this is CRITICAL information", 0, 10); got != 0.15+0.15 {
		t.Errorf("uppercase keyword score = %f, want %f", got, 0.3)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 1 {
		t.Errorf("EstimateTokens(\"\") = %d, want 1", got)
	}
	if got := EstimateTokens("abc"); got != 1 {
		t.Errorf("EstimateTokens(3 chars) = %d, want 1", got)
	}
	if got := EstimateTokens(strings.Repeat("x", 400)); got != 100 {
		t.Errorf("EstimateTokens(400 chars) = %d, want 100", got)
	}
}
