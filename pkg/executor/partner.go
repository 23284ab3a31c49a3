package executor

import (
	"context"
	"fmt"

	"github.com/veltia-labs/veltia-core/pkg/order"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

// executePartnerAction creates a mission for the partner configured on the
// tenant's module template. Both lookups must succeed before anything is
// written; a missing template or partner id produces an error and no mission.
func (e *Executor) executePartnerAction(ctx context.Context, o *order.Order) *Result {
	prospect, err := e.prospects.Get(ctx, o.ProspectID)
	if err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Prospect introuvable: %s", o.ProspectID),
		}
	}

	key := o.ProjectType + ":" + o.ModuleID
	template, err := e.templates.Get(ctx, prospect.TenantID, key)
	if err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Configuration du module partenaire introuvable: %s", key),
		}
	}

	cfg := template.ActionConfig
	if cfg.PartnerID == "" {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Aucun partenaire configuré pour le module %s", o.ModuleID),
		}
	}

	blocking := true
	if cfg.IsBlocking != nil && !*cfg.IsBlocking {
		blocking = false
	}

	mission := &store.Mission{
		ProspectID:   o.ProspectID,
		TenantID:     prospect.TenantID,
		PartnerID:    cfg.PartnerID,
		Instructions: cfg.PartnerInstructions,
		Blocking:     blocking,
		Status:       "pending",
		CreatedAt:    e.clock(),
	}

	taskCtx, cancel := e.callContext(ctx)
	defer cancel()
	missionID, err := e.partners.Create(taskCtx, mission)
	if err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Création de la mission partenaire échouée: %v", err),
		}
	}

	return &Result{
		Success: true,
		Status:  StatusExecuted,
		Message: "Mission partenaire créée",
		Data: map[string]any{
			"missionId": missionID,
			"partnerId": cfg.PartnerID,
			"blocking":  blocking,
		},
	}
}
