package executor

import (
	"context"
	"fmt"

	"github.com/veltia-labs/veltia-core/pkg/catalog"
	"github.com/veltia-labs/veltia-core/pkg/order"
)

// Preflight is the side-effect-free answer to "would Execute accept this
// order right now", used by UIs to enable or disable the execution control.
type Preflight struct {
	CanExecute bool   `json:"canExecute"`
	Reason     string `json:"reason,omitempty"`
}

// CanExecute replays the executor's guards without performing any write. A
// simulated order reports non-executable: executing it would be a no-op and
// the caller should clear the marker first.
func (e *Executor) CanExecute(ctx context.Context, o *order.Order) Preflight {
	if !e.flags.ExecutionEnabled(ctx) {
		return Preflight{Reason: "Exécution réelle désactivée (flag OFF)"}
	}
	if o == nil {
		return Preflight{Reason: "Ordre d'action manquant"}
	}
	if o.Meta.IsSimulation {
		return Preflight{Reason: "Ordre marqué comme simulation"}
	}
	if o.ProspectID == "" {
		return Preflight{Reason: "ActionOrder.prospectId manquant"}
	}
	if o.ActionType == "" {
		return Preflight{Reason: "ActionOrder.actionType manquant"}
	}
	switch o.ActionType {
	case catalog.ActionForm, catalog.ActionSignature:
	default:
		return Preflight{Reason: fmt.Sprintf("Type d'action non supporté: %s", o.ActionType)}
	}
	return Preflight{CanExecute: true}
}
