package conversation

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/recollect-ai/recollect/pkg/textindex"
)

// ErrSessionNotFound is returned by LoadSession when no file exists for the
// given name. In-memory state is left untouched.
var ErrSessionNotFound = errors.New("session not found")

// sessionRecord is one line of a session file. Summaries are stored with
// role "summary", an empty timestamp, and importance 1.0. Importance is a
// pointer so a missing field can be told apart from an explicit zero.
type sessionRecord struct {
	Ts         string   `json:"ts"`
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	Importance *float64 `json:"importance"`
}

// LoadReport summarizes a session load: per-line outcomes aggregated into
// counts. Malformed lines are skipped, never fatal.
type LoadReport struct {
	Messages  int `json:"messages"`
	Summaries int `json:"summaries"`
	Skipped   int `json:"skipped"`
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeFilename strips filesystem-unsafe characters and collapses
// whitespace to underscores. If nothing survives, a short hash of the
// original name is used so distinct all-bad-character inputs never collide
// on the same file.
func sanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "")
	cleaned = whitespacePattern.ReplaceAllString(strings.TrimSpace(cleaned), "_")
	if cleaned == "" {
		sum := sha256.Sum256([]byte(name))
		return "session_" + hex.EncodeToString(sum[:])[:8]
	}
	return cleaned
}

// sessionPath returns the file path for a session name.
func (m *Memory) sessionPath(name string) string {
	return filepath.Join(m.cfg.MemoryDir, sanitizeFilename(name)+".jsonl")
}

// SaveSession persists the full log plus all summaries as newline-delimited
// JSON. An empty name falls back to the current session name, then to a
// timestamp-derived one. Returns the file path written.
func (m *Memory) SaveSession(name string) (string, error) {
	if name == "" {
		name = m.sessionName
	}
	if name == "" {
		name = time.Now().UTC().Format("20060102_150405")
	}
	m.sessionName = name

	path := m.sessionPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create memory dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create session file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, msg := range m.allMessages {
		imp := msg.Importance
		if err := enc.Encode(sessionRecord{
			Ts:         formatTimestamp(msg.Timestamp),
			Role:       msg.Role,
			Content:    msg.Content,
			Importance: &imp,
		}); err != nil {
			return "", fmt.Errorf("write message record: %w", err)
		}
	}
	one := 1.0
	for _, summary := range m.summaries {
		if err := enc.Encode(sessionRecord{
			Ts:         "",
			Role:       "summary",
			Content:    summary,
			Importance: &one,
		}); err != nil {
			return "", fmt.Errorf("write summary record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush session file: %w", err)
	}

	slog.Info("session saved", "path", path, "messages", len(m.allMessages))
	return path, nil
}

// LoadSession replaces in-memory state with the named session's contents.
// The file is parsed into temporaries first: a missing file leaves state
// untouched and returns ErrSessionNotFound, and malformed lines are skipped
// with a count rather than aborting the load. On success the TF-IDF index
// is rebuilt from the loaded messages and the recent window is recomputed
// as the KeepRecent suffix.
func (m *Memory) LoadSession(name string) (*LoadReport, error) {
	path := m.sessionPath(name)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %q: %w", name, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		allMsgs   []Message
		summaries []string
		report    LoadReport
	)
	index := textindex.New()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec sessionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			report.Skipped++
			slog.Warn("skipping malformed session record", "path", path, "error", err)
			continue
		}

		if rec.Role == "summary" {
			summaries = append(summaries, rec.Content)
			report.Summaries++
			continue
		}

		role := rec.Role
		if role == "" {
			role = "user"
		}
		importance := 0.5
		if rec.Importance != nil {
			importance = *rec.Importance
		}
		allMsgs = append(allMsgs, Message{
			Role:       role,
			Content:    rec.Content,
			Importance: importance,
			Timestamp:  parseTimestamp(rec.Ts),
		})
		report.Messages++
		index.IndexText(fmt.Sprintf("msg_%d", report.Messages), rec.Content, indexChunkLines)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	// The file was readable — swap state in one step.
	m.allMessages = allMsgs
	m.summaries = summaries
	m.index = index
	m.messageCount = report.Messages
	if len(allMsgs) > m.cfg.KeepRecent {
		m.recent = append([]Message(nil), allMsgs[len(allMsgs)-m.cfg.KeepRecent:]...)
	} else {
		m.recent = append([]Message(nil), allMsgs...)
	}
	m.sessionName = name

	slog.Info("session loaded",
		"name", name,
		"messages", report.Messages,
		"summaries", report.Summaries,
		"skipped", report.Skipped)
	return &report, nil
}

// ListSessions returns the sanitized stems of saved sessions, sorted
// lexicographically. A missing memory directory yields an empty list.
func (m *Memory) ListSessions() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.MemoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read memory dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(entry.Name(), ".jsonl"); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
