package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLSignatureStore implements SignatureStore over database/sql.
type SQLSignatureStore struct {
	db *sql.DB
}

func NewSQLSignatureStore(db *sql.DB) (*SQLSignatureStore, error) {
	s := &SQLSignatureStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLSignatureStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS signature_procedures (
		id TEXT PRIMARY KEY,
		prospect_id TEXT NOT NULL,
		status TEXT NOT NULL,
		access_token TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		signer_name TEXT,
		signer_email TEXT,
		signers JSON,
		form_data JSON,
		signature_metadata JSON,
		document_key TEXT,
		created_at TIMESTAMP
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLSignatureStore) Insert(ctx context.Context, proc *SignatureProcedure) error {
	signers, err := json.Marshal(proc.Signers)
	if err != nil {
		return fmt.Errorf("encode signers: %w", err)
	}
	formData, err := json.Marshal(proc.FormData)
	if err != nil {
		return fmt.Errorf("encode form data: %w", err)
	}
	metadata, err := json.Marshal(proc.Metadata)
	if err != nil {
		return fmt.Errorf("encode signature metadata: %w", err)
	}

	query := `
		INSERT INTO signature_procedures (
			id, prospect_id, status, access_token, expires_at, signer_name,
			signer_email, signers, form_data, signature_metadata, document_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		proc.ID, proc.ProspectID, proc.Status, proc.AccessToken, proc.ExpiresAt,
		proc.SignerName, proc.SignerEmail, string(signers), string(formData),
		string(metadata), proc.DocumentKey, proc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signature procedure: %w", err)
	}
	return nil
}

func (s *SQLSignatureStore) Get(ctx context.Context, id string) (*SignatureProcedure, error) {
	query := `
		SELECT id, prospect_id, status, access_token, expires_at, signer_name,
			signer_email, signers, form_data, signature_metadata, document_key, created_at
		FROM signature_procedures
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)

	var proc SignatureProcedure
	var signerName, signerEmail, documentKey sql.NullString
	var signers, formData, metadata sql.NullString
	err := row.Scan(
		&proc.ID, &proc.ProspectID, &proc.Status, &proc.AccessToken, &proc.ExpiresAt,
		&signerName, &signerEmail, &signers, &formData, &metadata, &documentKey, &proc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get signature procedure %s: %w", id, err)
	}

	proc.SignerName = signerName.String
	proc.SignerEmail = signerEmail.String
	proc.DocumentKey = documentKey.String
	if signers.Valid && signers.String != "" {
		if err := json.Unmarshal([]byte(signers.String), &proc.Signers); err != nil {
			return nil, fmt.Errorf("corrupt signers in procedure %s: %w", id, err)
		}
	}
	if formData.Valid && formData.String != "" {
		if err := json.Unmarshal([]byte(formData.String), &proc.FormData); err != nil {
			return nil, fmt.Errorf("corrupt form data in procedure %s: %w", id, err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &proc.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata in procedure %s: %w", id, err)
		}
	}
	return &proc, nil
}
