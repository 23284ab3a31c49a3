package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/order"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

const panelIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func (e *Executor) randSuffix(n int) string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(panelIDAlphabet[e.rng.Intn(len(panelIDAlphabet))])
	}
	return b.String()
}

// executeFormAction creates one form panel per form id. Each form is handled
// independently: one failed insert is recorded and the loop moves on, so the
// result can report partial success.
func (e *Executor) executeFormAction(ctx context.Context, o *order.Order) *Result {
	projectType := o.ProjectType
	if projectType == "" {
		projectType = "general"
	}
	stepName := o.ModuleName
	if stepName == "" {
		stepName = o.ModuleID
	}
	verificationMode := string(o.VerificationMode)
	if verificationMode == "" {
		verificationMode = "HUMAN"
	}

	reminderEnabled := false
	reminderDelay := 1
	maxReminders := 3
	if rc := o.ReminderConfig; rc != nil {
		reminderEnabled = rc.Enabled
		reminderDelay = rc.DelayDays
		maxReminders = rc.MaxRemindersBeforeTask
	}

	var created []string
	var failures []map[string]string

	for _, formID := range o.FormIDs {
		now := e.clock()
		panel := &store.FormPanel{
			ID:               fmt.Sprintf("panel-%d-%s", now.UnixMilli(), e.randSuffix(5)),
			ProspectID:       o.ProspectID,
			ProjectType:      projectType,
			FormID:           formID,
			Status:           "pending",
			MessageTimestamp: now,
			StepName:         stepName,
			ActionID:         o.ActionID,
			VerificationMode: verificationMode,

			ReminderEnabled:        reminderEnabled,
			ReminderDelayDays:      reminderDelay,
			MaxRemindersBeforeTask: maxReminders,
		}

		if err := e.panels.Insert(ctx, panel); err != nil {
			e.log.Warn("création du panneau de formulaire échouée",
				"order_id", o.ID, "form_id", formID, "error", err)
			failures = append(failures, map[string]string{
				"formId": formID,
				"error":  err.Error(),
			})
			continue
		}
		created = append(created, panel.ID)

		if o.HasClientAction != nil && *o.HasClientAction {
			notify.BestEffortSend(ctx, e.chat, &notify.Message{
				ProspectID: o.ProspectID,
				Sender:     "system",
				Content:    fmt.Sprintf("Un nouveau formulaire est disponible: %s", stepName),
				Metadata: map[string]any{
					"panelId": panel.ID,
					"formId":  formID,
				},
			})
		}
	}

	result := &Result{
		Success: len(failures) == 0,
		Status:  StatusExecuted,
		Message: fmt.Sprintf("%d panneau(x) créé(s), %d erreur(s)", len(created), len(failures)),
		Data: map[string]any{
			"createdPanels": created,
			"errors":        failures,
		},
	}
	if len(failures) > 0 {
		result.Status = StatusError
	}
	return result
}
