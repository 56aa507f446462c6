// Package conversation provides bounded-memory conversation context for an
// LLM-backed assistant. Old messages are compressed into rolling summaries,
// every message stays searchable through a TF-IDF index, and full session
// history persists to JSONL files on disk.
package conversation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/recollect-ai/recollect/pkg/textindex"
)

const (
	// maxAllMessages caps the full log before the oldest are pruned.
	maxAllMessages = 5000

	// maxSummaries caps the summary list before the oldest pair is merged.
	maxSummaries = 50

	// contextTokenBudget bounds the total BuildContext output.
	contextTokenBudget = 12000

	// indexChunkLines is the chunk size for message indexing — large
	// because individual messages are short.
	indexChunkLines = 200

	// summaryMaxChars bounds a single freshly-compressed summary.
	summaryMaxChars = 2000

	// mergedSummaryMaxChars bounds a summary produced by merging the
	// oldest pair.
	mergedSummaryMaxChars = 3000

	// minRecallScore is the relevance floor for TF-IDF recall results.
	minRecallScore = 0.1

	// reserveTokens is the minimum remaining budget required before
	// summaries or recalled content are added to the context.
	reserveTokens = 200
)

// Message is a single conversational turn annotated with an importance
// score and creation time. Immutable after creation.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Importance float64   `json:"importance"`
	Timestamp  time.Time `json:"timestamp"`
}

// ContextEntry is one entry of an assembled request context.
type ContextEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stats is a snapshot of memory state.
type Stats struct {
	Messages        int    `json:"messages"`        // recent window size
	TotalMessages   int    `json:"total_messages"`  // full log size
	Summaries       int    `json:"summaries"`       // summary count
	IndexedChunks   int    `json:"indexed_chunks"`  // TF-IDF document count
	EstimatedTokens int    `json:"estimated_tokens"` // recent window token estimate
	Session         string `json:"session,omitempty"`
}

// Archiver receives messages about to be pruned from the full log, so their
// raw text survives somewhere durable. Archiving is best-effort: a failure
// is logged and pruning proceeds.
type Archiver interface {
	Archive(msgs []Message) error
}

// Config holds Memory construction parameters.
type Config struct {
	// TokenBudget is the estimated-token budget for the recent window.
	// Default: 6000.
	TokenBudget int

	// KeepRecent is how many recent messages survive compression
	// verbatim. Default: 10.
	KeepRecent int

	// MemoryDir is where session files are stored.
	// Default: ~/.recollect/sessions.
	MemoryDir string

	// TopK is the recall fan-out for BuildContext. Default: 3.
	TopK int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	dir := ".recollect/sessions"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".recollect", "sessions")
	}
	return Config{
		TokenBudget: 6000,
		KeepRecent:  10,
		MemoryDir:   dir,
		TopK:        3,
	}
}

// Memory manages unbounded conversation context under a hard token budget.
//
// State:
//   - allMessages: append-ordered full log, pruned at maxAllMessages
//   - recent: suffix of allMessages kept verbatim, trimmed on compression
//   - summaries: compressed segments of evicted messages, oldest first
//   - index: TF-IDF index over every message ever added
//
// A Memory is owned by a single logical session and is not safe for
// concurrent use; callers serialize access externally.
type Memory struct {
	allMessages  []Message
	recent       []Message
	summaries    []string
	index        *textindex.Index
	cfg          Config
	archiver     Archiver
	sessionName  string
	messageCount int
}

// New creates a Memory with the given configuration. Zero or negative
// config values fall back to defaults.
func New(cfg Config) *Memory {
	def := DefaultConfig()
	if cfg.TokenBudget < 1 {
		cfg.TokenBudget = def.TokenBudget
	}
	if cfg.KeepRecent < 1 {
		cfg.KeepRecent = def.KeepRecent
	}
	if cfg.MemoryDir == "" {
		cfg.MemoryDir = def.MemoryDir
	}
	if cfg.TopK < 1 {
		cfg.TopK = def.TopK
	}
	return &Memory{
		index: textindex.New(),
		cfg:   cfg,
	}
}

// SetArchiver installs an archive for messages pruned from the full log.
func (m *Memory) SetArchiver(a Archiver) {
	m.archiver = a
}

// Add appends a message, scoring it against the current full-log length so
// earlier scores are never retroactively recalculated, indexes it for
// recall, then runs the compression and prune checks in that order.
func (m *Memory) Add(role, content string) {
	idx := len(m.allMessages)
	msg := Message{
		Role:       role,
		Content:    content,
		Importance: ScoreImportance(role, content, idx, idx+1),
		Timestamp:  time.Now().UTC(),
	}

	m.allMessages = append(m.allMessages, msg)
	m.recent = append(m.recent, msg)
	m.messageCount++

	// Indexed once; the entry outlives eviction from the recent window.
	m.index.IndexText(fmt.Sprintf("msg_%d", m.messageCount), content, indexChunkLines)

	messagesAdded.Inc()

	m.maybeCompress()
	m.maybePrune()
}

// BuildContext assembles a bounded request context for userInput, in
// priority order: recent messages verbatim (always included), joined
// summaries (truncated to half the remaining budget), then TF-IDF-recalled
// content (truncated to the remaining budget). userInput itself is never
// included — the caller appends it separately.
func (m *Memory) BuildContext(userInput string) []ContextEntry {
	contextBuilds.Inc()

	budget := contextTokenBudget

	recent := m.recentWindow()
	recentEntries := make([]ContextEntry, 0, len(recent))
	for _, msg := range recent {
		budget -= EstimateTokens(msg.Content)
		recentEntries = append(recentEntries, ContextEntry{Role: msg.Role, Content: msg.Content})
	}

	var parts []ContextEntry

	if len(m.summaries) > 0 && budget > reserveTokens {
		combined := strings.Join(m.summaries, summaryDivider)
		if EstimateTokens(combined) > budget/2 {
			maxChars := (budget / 2) * 4
			combined = truncateToRune(combined, maxChars) + truncationMarker
		}
		parts = append(parts, ContextEntry{
			Role:    "system",
			Content: "Earlier conversation summary:\n" + combined,
		})
		budget -= EstimateTokens(combined)
	}

	if budget > reserveTokens {
		if recalled := m.recall(userInput); recalled != "" {
			if EstimateTokens(recalled) > budget {
				recalled = truncateToRune(recalled, budget*4) + truncationMarker
			}
			parts = append(parts, ContextEntry{
				Role:    "system",
				Content: "Relevant earlier context:\n" + recalled,
			})
		}
	}

	return append(parts, recentEntries...)
}

// Clear resets all in-memory state. The current session name is kept so a
// later save still targets the same file.
func (m *Memory) Clear() {
	m.allMessages = nil
	m.recent = nil
	m.summaries = nil
	m.index = textindex.New()
	m.messageCount = 0
}

// Stats returns a snapshot of memory statistics.
func (m *Memory) Stats() Stats {
	tokens := 0
	for _, msg := range m.recent {
		tokens += EstimateTokens(msg.Content)
	}
	return Stats{
		Messages:        len(m.recent),
		TotalMessages:   len(m.allMessages),
		Summaries:       len(m.summaries),
		IndexedChunks:   m.index.Len(),
		EstimatedTokens: tokens,
		Session:         m.sessionName,
	}
}

// SearchIndex runs a raw TF-IDF query over every message ever added,
// including those long evicted from the recent window.
func (m *Memory) SearchIndex(query string, topK int) []textindex.Result {
	return m.index.Search(query, topK)
}

// recentWindow returns the last KeepRecent messages of the recent window.
func (m *Memory) recentWindow() []Message {
	if len(m.recent) > m.cfg.KeepRecent {
		return m.recent[len(m.recent)-m.cfg.KeepRecent:]
	}
	return m.recent
}

// maybeCompress compresses the oldest part of the recent window into one
// summary when the window exceeds the token budget, then merges the oldest
// summary pair while the summary count cap is exceeded.
func (m *Memory) maybeCompress() {
	total := 0
	for _, msg := range m.recent {
		total += EstimateTokens(msg.Content)
	}
	if total <= m.cfg.TokenBudget {
		return
	}

	cut := len(m.recent) - m.cfg.KeepRecent
	if cut <= 0 {
		return
	}
	toCompress := m.recent[:cut]

	summary := CompressMessages(toCompress, summaryMaxChars)
	m.summaries = append(m.summaries, summary)

	// Full content survives in allMessages and the TF-IDF index.
	m.recent = m.recent[cut:]

	compressions.Inc()
	slog.Debug("compressed messages into summary",
		"compressed", cut,
		"summary_chars", len(summary),
		"summaries", len(m.summaries))

	for len(m.summaries) > maxSummaries {
		merged := m.summaries[0] + summaryDivider + m.summaries[1]
		if len(merged) > mergedSummaryMaxChars {
			merged = truncateToRune(merged, mergedSummaryMaxChars) + truncationMarker
		}
		m.summaries = append([]string{merged}, m.summaries[2:]...)
		summaryMerges.Inc()
		slog.Debug("merged oldest summaries", "summaries", len(m.summaries))
	}
}

// maybePrune drops the oldest 20% of the full log when it exceeds the cap.
// Compression always runs first, so dropped messages are already covered by
// summaries and the index; the raw text is handed to the archiver if one is
// configured.
func (m *Memory) maybePrune() {
	if len(m.allMessages) <= maxAllMessages {
		return
	}

	drop := len(m.allMessages) / 5
	if m.archiver != nil {
		if err := m.archiver.Archive(m.allMessages[:drop]); err != nil {
			slog.Warn("archiving pruned messages failed", "error", err)
		}
	}
	m.allMessages = m.allMessages[drop:]

	messagesPruned.Add(float64(drop))
	slog.Debug("pruned oldest messages", "dropped", drop, "remaining", len(m.allMessages))
}

// recall searches the TF-IDF index for old content relevant to query,
// deduplicating against the recent window by substring containment. Only
// candidate-in-recent is checked, not the reverse: very short recent
// messages like "ok" would otherwise suppress all recall.
func (m *Memory) recall(query string) string {
	recallQueries.Inc()

	results := m.index.Search(query, m.cfg.TopK+m.cfg.KeepRecent)
	if len(results) == 0 {
		return ""
	}

	recent := m.recentWindow()

	var recalled []string
	for _, r := range results {
		if r.Score < minRecallScore {
			continue
		}
		contained := false
		for _, msg := range recent {
			if strings.Contains(msg.Content, r.Text) {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		recalled = append(recalled, r.Text)
		if len(recalled) >= m.cfg.TopK {
			break
		}
	}

	return strings.Join(recalled, "\n")
}
