package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is the fixed-width UTC layout used for created_at columns.
// Fixed width keeps lexicographic order equal to chronological order.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a session's history.
type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// EnsureSession creates the session row if it does not exist yet. Sessions
// are created implicitly on first reference; there is no explicit create step.
func (s *Store) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_sessions (session_id) VALUES (?) ON CONFLICT DO NOTHING",
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

// AppendMessage persists one turn. Each append is a single auto-committed
// statement so a later failure in the same request never rolls back turns
// that were already written.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, role, content, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// AppendAction records one invocation of the cancellation service in the
// append-only audit trail. The trail is never read back by the dialogue core.
func (s *Store) AppendAction(ctx context.Context, sessionID, actionName string, args map[string]string, result string) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal action args: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO chat_actions (action_id, session_id, action_name, args, result) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), sessionID, actionName, string(argsJSON), result,
	)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

// SessionHistory returns the full ordered turn history for the session,
// oldest first. Read order equals write order: rows are ordered by creation
// time with insertion order breaking ties.
func (s *Store) SessionHistory(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages
		 WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if ts, err := time.Parse(timeLayout, createdAt); err == nil {
			m.CreatedAt = ts
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// LastAssistantMessage returns the most recent assistant turn for the session,
// or ("", false, nil) when the session has no assistant turn yet.
func (s *Store) LastAssistantMessage(ctx context.Context, sessionID string) (string, bool, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM chat_messages
		 WHERE session_id = ? AND role = 'assistant'
		 ORDER BY id DESC LIMIT 1`,
		sessionID,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query last assistant message: %w", err)
	}
	return content, true, nil
}

// RecentUserMessages returns up to n user turns for the session, newest first.
func (s *Store) RecentUserMessages(ctx context.Context, sessionID string, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content FROM chat_messages
		 WHERE session_id = ? AND role = 'user'
		 ORDER BY id DESC LIMIT ?`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent user messages: %w", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan user message: %w", err)
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user messages: %w", err)
	}
	return contents, nil
}
