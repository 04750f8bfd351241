package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/financeai/internal/model"
)

// AppendMessage records one advisor turn for account.
func (s *SQLiteStore) AppendMessage(ctx context.Context, account string, msg model.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO advisor_messages (id, account, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, account, msg.Role, msg.Content, msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending advisor message: %w", err)
	}
	return nil
}

// Messages returns the newest limit messages for account in
// chronological order. A non-positive limit returns all of them.
func (s *SQLiteStore) Messages(ctx context.Context, account string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}

	var msgs []model.ChatMessage
	err := s.db.SelectContext(ctx, &msgs, `
		SELECT id, role, content, created_at FROM (
			SELECT id, role, content, created_at, rowid AS seq
			FROM advisor_messages
			WHERE account = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("querying advisor messages: %w", err)
	}
	return msgs, nil
}

// ClearMessages deletes the advisor history for account.
func (s *SQLiteStore) ClearMessages(ctx context.Context, account string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM advisor_messages WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("clearing advisor messages: %w", err)
	}
	return nil
}
