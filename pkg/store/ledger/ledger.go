// Package ledger records which action orders have been executed. Claiming an
// order id is the idempotency barrier against double execution: a double-click
// or a re-run of a partially failed order surfaces as a refused claim instead
// of duplicated side effects.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Entry is one execution claim.
type Entry struct {
	OrderID     string
	Fingerprint string
	ProspectID  string
	Outcome     string
	ClaimedAt   time.Time
}

// Outcome values recorded after dispatch.
const (
	OutcomePending  = "PENDING"
	OutcomeExecuted = "EXECUTED"
	OutcomeError    = "ERROR"
)

var ErrNotFound = errors.New("ledger entry not found")

// Ledger is the executor-facing contract.
type Ledger interface {
	// Claim records the intent to execute an order. It returns false when the
	// order id was already claimed; the caller must then refuse to execute.
	Claim(ctx context.Context, e Entry) (bool, error)
	// RecordOutcome updates the claim after dispatch completes.
	RecordOutcome(ctx context.Context, orderID, outcome string) error
	Get(ctx context.Context, orderID string) (Entry, error)
}
