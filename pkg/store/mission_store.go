package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SQLMissionStore implements MissionStore over database/sql. It also serves
// as the default partner-task execution capability: creating the mission
// record is what assigns the task.
type SQLMissionStore struct {
	db *sql.DB
}

func NewSQLMissionStore(db *sql.DB) (*SQLMissionStore, error) {
	s := &SQLMissionStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLMissionStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		prospect_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		partner_id TEXT NOT NULL,
		instructions TEXT,
		blocking BOOLEAN NOT NULL DEFAULT TRUE,
		status TEXT NOT NULL,
		created_at TIMESTAMP
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLMissionStore) Insert(ctx context.Context, mission *Mission) error {
	if mission.ID == "" {
		mission.ID = uuid.New().String()
	}
	query := `
		INSERT INTO missions (id, prospect_id, tenant_id, partner_id, instructions, blocking, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		mission.ID, mission.ProspectID, mission.TenantID, mission.PartnerID,
		mission.Instructions, mission.Blocking, mission.Status, mission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mission: %w", err)
	}
	return nil
}
