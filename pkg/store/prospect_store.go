package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLProspectStore implements ProspectStore over database/sql. Placeholders
// use the $N style, accepted by both Postgres and SQLite.
type SQLProspectStore struct {
	db *sql.DB
}

func NewSQLProspectStore(db *sql.DB) (*SQLProspectStore, error) {
	s := &SQLProspectStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLProspectStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS prospects (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT,
		company TEXT,
		email TEXT,
		project_type TEXT,
		created_at TIMESTAMP
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLProspectStore) Get(ctx context.Context, id string) (*Prospect, error) {
	query := `
		SELECT id, tenant_id, name, company, email, project_type, created_at
		FROM prospects
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)

	var p Prospect
	var name, company, email, projectType sql.NullString
	err := row.Scan(&p.ID, &p.TenantID, &name, &company, &email, &projectType, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prospect %s: %w", id, err)
	}
	p.Name = name.String
	p.Company = company.String
	p.Email = email.String
	p.ProjectType = projectType.String
	return &p, nil
}

// Insert is used by provisioning and tests; the execution paths only read.
func (s *SQLProspectStore) Insert(ctx context.Context, p *Prospect) error {
	query := `
		INSERT INTO prospects (id, tenant_id, name, company, email, project_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.Name, p.Company, p.Email, p.ProjectType, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prospect: %w", err)
	}
	return nil
}
