package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLModuleTemplateStore implements ModuleTemplateStore over database/sql.
// Action configuration is stored as the raw JSON document the configuration
// UI persists; it is validated when decoded, not on write.
type SQLModuleTemplateStore struct {
	db *sql.DB
}

func NewSQLModuleTemplateStore(db *sql.DB) (*SQLModuleTemplateStore, error) {
	s := &SQLModuleTemplateStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLModuleTemplateStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS workflow_module_templates (
		tenant_id TEXT NOT NULL,
		template_key TEXT NOT NULL,
		module_name TEXT,
		action_config JSON NOT NULL,
		PRIMARY KEY (tenant_id, template_key)
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLModuleTemplateStore) Get(ctx context.Context, tenantID, key string) (*ModuleTemplate, error) {
	query := `
		SELECT tenant_id, template_key, module_name, action_config
		FROM workflow_module_templates
		WHERE tenant_id = $1 AND template_key = $2
	`
	row := s.db.QueryRowContext(ctx, query, tenantID, key)

	var t ModuleTemplate
	var moduleName sql.NullString
	var rawConfig string
	err := row.Scan(&t.TenantID, &t.Key, &moduleName, &rawConfig)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get module template %s/%s: %w", tenantID, key, err)
	}
	t.ModuleName = moduleName.String

	if err := json.Unmarshal([]byte(rawConfig), &t.ActionConfig); err != nil {
		return nil, fmt.Errorf("corrupt action config in template %s/%s: %w", tenantID, key, err)
	}
	return &t, nil
}

// Put is used by provisioning and tests.
func (s *SQLModuleTemplateStore) Put(ctx context.Context, t *ModuleTemplate) error {
	raw, err := json.Marshal(t.ActionConfig)
	if err != nil {
		return fmt.Errorf("encode action config: %w", err)
	}
	query := `
		INSERT INTO workflow_module_templates (tenant_id, template_key, module_name, action_config)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, template_key) DO UPDATE SET
			module_name = excluded.module_name,
			action_config = excluded.action_config
	`
	_, err = s.db.ExecContext(ctx, query, t.TenantID, t.Key, t.ModuleName, string(raw))
	if err != nil {
		return fmt.Errorf("put module template: %w", err)
	}
	return nil
}
