package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLFormPanelStore implements FormPanelStore over database/sql.
type SQLFormPanelStore struct {
	db *sql.DB
}

func NewSQLFormPanelStore(db *sql.DB) (*SQLFormPanelStore, error) {
	s := &SQLFormPanelStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLFormPanelStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS client_form_panels (
		id TEXT PRIMARY KEY,
		prospect_id TEXT NOT NULL,
		project_type TEXT,
		form_id TEXT NOT NULL,
		status TEXT NOT NULL,
		message_timestamp TIMESTAMP,
		step_name TEXT,
		action_id TEXT,
		verification_mode TEXT,
		reminder_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		reminder_delay_days INTEGER NOT NULL DEFAULT 1,
		max_reminders_before_task INTEGER NOT NULL DEFAULT 3,
		reminder_count INTEGER NOT NULL DEFAULT 0,
		last_reminder_at TIMESTAMP,
		task_created BOOLEAN NOT NULL DEFAULT FALSE,
		submission_data JSON
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

const panelColumns = `id, prospect_id, project_type, form_id, status, message_timestamp,
		step_name, action_id, verification_mode, reminder_enabled, reminder_delay_days,
		max_reminders_before_task, reminder_count, last_reminder_at, task_created, submission_data`

func (s *SQLFormPanelStore) Insert(ctx context.Context, panel *FormPanel) error {
	query := `
		INSERT INTO client_form_panels (` + panelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	var submission any
	if panel.SubmissionData != nil {
		raw, err := json.Marshal(panel.SubmissionData)
		if err != nil {
			return fmt.Errorf("encode submission data: %w", err)
		}
		submission = string(raw)
	}

	_, err := s.db.ExecContext(ctx, query,
		panel.ID, panel.ProspectID, panel.ProjectType, panel.FormID, panel.Status,
		panel.MessageTimestamp, panel.StepName, panel.ActionID, panel.VerificationMode,
		panel.ReminderEnabled, panel.ReminderDelayDays, panel.MaxRemindersBeforeTask,
		panel.ReminderCount, panel.LastReminderAt, panel.TaskCreated, submission,
	)
	if err != nil {
		return fmt.Errorf("insert form panel: %w", err)
	}
	return nil
}

func (s *SQLFormPanelStore) Get(ctx context.Context, id string) (*FormPanel, error) {
	query := `SELECT ` + panelColumns + ` FROM client_form_panels WHERE id = $1`
	return s.queryOne(ctx, query, id)
}

func (s *SQLFormPanelStore) Submission(ctx context.Context, prospectID, formID string) (map[string]any, error) {
	query := `
		SELECT submission_data
		FROM client_form_panels
		WHERE prospect_id = $1 AND form_id = $2 AND submission_data IS NOT NULL
		ORDER BY message_timestamp DESC
		LIMIT 1
	`
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, query, prospectID, formID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get submission %s/%s: %w", prospectID, formID, err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, ErrNotFound
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw.String), &data); err != nil {
		return nil, fmt.Errorf("corrupt submission data for panel %s/%s: %w", prospectID, formID, err)
	}
	return data, nil
}

// DueReminders returns pending panels whose reminder clock has elapsed. The
// delay comparison happens in SQL so a sweep stays one query.
func (s *SQLFormPanelStore) DueReminders(ctx context.Context, now time.Time) ([]*FormPanel, error) {
	query := `
		SELECT ` + panelColumns + `
		FROM client_form_panels
		WHERE status = 'pending'
		  AND reminder_enabled = TRUE
		  AND task_created = FALSE
		ORDER BY message_timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var due []*FormPanel
	for rows.Next() {
		panel, err := scanPanel(rows)
		if err != nil {
			return nil, err
		}
		// Delay arithmetic in Go keeps the query portable across drivers.
		anchor := panel.MessageTimestamp
		if panel.LastReminderAt != nil {
			anchor = *panel.LastReminderAt
		}
		if now.Sub(anchor) >= time.Duration(panel.ReminderDelayDays)*24*time.Hour {
			due = append(due, panel)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return due, nil
}

func (s *SQLFormPanelStore) RecordReminder(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE client_form_panels
		SET reminder_count = reminder_count + 1, last_reminder_at = $1
		WHERE id = $2
	`
	_, err := s.db.ExecContext(ctx, query, at, id)
	return err
}

func (s *SQLFormPanelStore) MarkTaskCreated(ctx context.Context, id string) error {
	query := `UPDATE client_form_panels SET task_created = TRUE WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLFormPanelStore) queryOne(ctx context.Context, query string, args ...any) (*FormPanel, error) {
	panel, err := scanPanel(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return panel, nil
}

func scanPanel(row rowScanner) (*FormPanel, error) {
	var p FormPanel
	var projectType, stepName, actionID, verificationMode, submission sql.NullString
	var lastReminder sql.NullTime

	err := row.Scan(
		&p.ID, &p.ProspectID, &projectType, &p.FormID, &p.Status, &p.MessageTimestamp,
		&stepName, &actionID, &verificationMode, &p.ReminderEnabled, &p.ReminderDelayDays,
		&p.MaxRemindersBeforeTask, &p.ReminderCount, &lastReminder, &p.TaskCreated, &submission,
	)
	if err != nil {
		return nil, err
	}

	p.ProjectType = projectType.String
	p.StepName = stepName.String
	p.ActionID = actionID.String
	p.VerificationMode = verificationMode.String
	if lastReminder.Valid {
		t := lastReminder.Time
		p.LastReminderAt = &t
	}
	if submission.Valid && submission.String != "" {
		if err := json.Unmarshal([]byte(submission.String), &p.SubmissionData); err != nil {
			return nil, fmt.Errorf("corrupt submission data in panel %s: %w", p.ID, err)
		}
	}
	return &p, nil
}
