package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// SQLChatStore implements ChatStore over database/sql.
type SQLChatStore struct {
	db *sql.DB
}

func NewSQLChatStore(db *sql.DB) (*SQLChatStore, error) {
	s := &SQLChatStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLChatStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		prospect_id TEXT NOT NULL,
		sender TEXT,
		content TEXT NOT NULL,
		is_html BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP,
		metadata JSON
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLChatStore) Insert(ctx context.Context, msg *ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	var metadata any
	if msg.Metadata != nil {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encode chat metadata: %w", err)
		}
		metadata = string(raw)
	}

	query := `
		INSERT INTO chat_messages (id, prospect_id, sender, content, is_html, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.ProspectID, msg.Sender, msg.Content, msg.IsHTML, msg.CreatedAt, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}
