// Package archive provides a SQLite-backed archive for messages pruned
// from conversation memory, so their raw text remains retrievable after the
// in-memory log drops them.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/recollect-ai/recollect/pkg/conversation"
)

// Store archives pruned conversation messages. It implements
// conversation.Archiver.
//
// Uses a single connection (SetMaxOpenConns(1)) so SQLite's internal
// serialization handles concurrency. No application-level mutex needed.
type Store struct {
	db *sql.DB
}

// Open creates or opens an archive database. Use ":memory:" for ephemeral
// storage or a file path for persistence.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		ts          TEXT NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		importance  REAL NOT NULL,
		archived_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_archived_ts ON archived_messages(ts);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Archive inserts pruned messages in log order.
func (s *Store) Archive(msgs []conversation.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, msg := range msgs {
		ts := ""
		if !msg.Timestamp.IsZero() {
			ts = msg.Timestamp.Format(time.RFC3339Nano)
		}
		if _, err := tx.Exec(
			`INSERT INTO archived_messages (ts, role, content, importance, archived_at)
			 VALUES (?, ?, ?, ?, ?)`,
			ts, msg.Role, msg.Content, msg.Importance, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert archived message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// Search returns archived messages whose content contains substr, oldest
// first, capped at limit.
func (s *Store) Search(substr string, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT ts, role, content, importance FROM archived_messages
		 WHERE content LIKE '%' || ? || '%' ORDER BY id LIMIT ?`,
		substr, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []conversation.Message
	for rows.Next() {
		var ts, role, content string
		var importance float64
		if err := rows.Scan(&ts, &role, &content, &importance); err != nil {
			return nil, err
		}
		var when time.Time
		if ts != "" {
			when, _ = time.Parse(time.RFC3339Nano, ts)
		}
		msgs = append(msgs, conversation.Message{
			Role:       role,
			Content:    content,
			Importance: importance,
			Timestamp:  when,
		})
	}
	return msgs, rows.Err()
}

// Count returns the number of archived messages.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM archived_messages").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
