// Package executor interprets action orders against the live system. It is
// the only component allowed to turn an order into side effects, and it is
// wrapped in guards so that a disabled flag, a simulation marker or a broken
// order can never reach a write path.
package executor

import (
	"context"
	"time"

	"github.com/veltia-labs/veltia-core/pkg/store"
)

// Status classifies the terminal outcome of an execution attempt.
type Status string

const (
	StatusExecuted  Status = "executed"
	StatusSimulated Status = "simulated"
	StatusBlocked   Status = "blocked"
	StatusError     Status = "error"
)

// Result is the uniform return value of Execute. The executor never returns
// an error and never panics outward; every failure mode is folded into a
// Result with Success false.
type Result struct {
	Success bool           `json:"success"`
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// FlagSource answers whether real execution is currently enabled. The flag is
// consulted on every call so a runtime toggle takes effect immediately.
type FlagSource interface {
	ExecutionEnabled(ctx context.Context) bool
}

// FlagFunc adapts a plain function to FlagSource.
type FlagFunc func(ctx context.Context) bool

func (f FlagFunc) ExecutionEnabled(ctx context.Context) bool { return f(ctx) }

// PartnerTasks creates partner missions. Implementations may call an external
// partner platform; the default writes to the mission store.
type PartnerTasks interface {
	Create(ctx context.Context, mission *store.Mission) (string, error)
}

// StoreMissionRunner is the default PartnerTasks, backed by the mission store.
type StoreMissionRunner struct {
	Missions store.MissionStore
}

func (r *StoreMissionRunner) Create(ctx context.Context, mission *store.Mission) (string, error) {
	if mission.Status == "" {
		mission.Status = "pending"
	}
	if mission.CreatedAt.IsZero() {
		mission.CreatedAt = time.Now().UTC()
	}
	if err := r.Missions.Insert(ctx, mission); err != nil {
		return "", err
	}
	return mission.ID, nil
}

// MetricsRecorder receives one observation per terminal execution outcome.
type MetricsRecorder interface {
	RecordExecution(ctx context.Context, status string, elapsed time.Duration)
}
