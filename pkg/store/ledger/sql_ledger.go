package ledger

import (
	"context"
	"database/sql"
	"errors"
)

// SQLLedger implements Ledger using database/sql. It supports both Postgres
// and SQLite via standard drivers; the unique primary key plus
// ON CONFLICT DO NOTHING makes Claim race-safe without explicit locking.
type SQLLedger struct {
	db *sql.DB
}

func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS executed_orders (
	order_id TEXT PRIMARY KEY,
	fingerprint TEXT,
	prospect_id TEXT,
	outcome TEXT NOT NULL,
	claimed_at TIMESTAMP
);
`

func (s *SQLLedger) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLLedger) Claim(ctx context.Context, e Entry) (bool, error) {
	query := `
		INSERT INTO executed_orders (order_id, fingerprint, prospect_id, outcome, claimed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		e.OrderID, e.Fingerprint, e.ProspectID, OutcomePending, e.ClaimedAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *SQLLedger) RecordOutcome(ctx context.Context, orderID, outcome string) error {
	query := `UPDATE executed_orders SET outcome = $1 WHERE order_id = $2`
	_, err := s.db.ExecContext(ctx, query, outcome, orderID)
	return err
}

func (s *SQLLedger) Get(ctx context.Context, orderID string) (Entry, error) {
	query := `
		SELECT order_id, fingerprint, prospect_id, outcome, claimed_at
		FROM executed_orders
		WHERE order_id = $1
	`
	row := s.db.QueryRowContext(ctx, query, orderID)

	var e Entry
	var fingerprint, prospectID sql.NullString
	err := row.Scan(&e.OrderID, &fingerprint, &prospectID, &e.Outcome, &e.ClaimedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	e.Fingerprint = fingerprint.String
	e.ProspectID = prospectID.String
	return e, nil
}
