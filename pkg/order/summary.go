package order

import (
	"fmt"
	"strings"
	"time"
)

// FormatSummary renders a human-readable multi-line description of the order,
// the shape reviewers see before deciding to execute.
func FormatSummary(o *Order) string {
	if o == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ordre d'action %s\n", o.ID)
	fmt.Fprintf(&b, "  Version:      %s\n", o.Version)
	fmt.Fprintf(&b, "  Statut:       %s\n", o.Status)
	fmt.Fprintf(&b, "  Créé le:      %s\n", o.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  Module:       %s (%s)\n", o.ModuleName, o.ModuleID)
	fmt.Fprintf(&b, "  Projet:       %s\n", o.ProjectType)
	fmt.Fprintf(&b, "  Prospect:     %s\n", o.ProspectID)
	fmt.Fprintf(&b, "  Action:       %s (%s)\n", o.ActionType, o.LegacyType)
	fmt.Fprintf(&b, "  Cible:        %s\n", o.Target)
	if len(o.FormIDs) > 0 {
		fmt.Fprintf(&b, "  Formulaires:  %s\n", strings.Join(o.FormIDs, ", "))
	}
	if len(o.TemplateIDs) > 0 {
		fmt.Fprintf(&b, "  Templates:    %s\n", strings.Join(o.TemplateIDs, ", "))
	}
	if o.SignatureType != "" {
		fmt.Fprintf(&b, "  Signature:    %s\n", o.SignatureType)
	}
	fmt.Fprintf(&b, "  Gestion:      %s / Vérification: %s\n", o.ManagementMode, o.VerificationMode)
	if o.ReminderConfig != nil {
		fmt.Fprintf(&b, "  Relances:     activées=%t, délai=%dj, max avant tâche=%d\n",
			o.ReminderConfig.Enabled, o.ReminderConfig.DelayDays, o.ReminderConfig.MaxRemindersBeforeTask)
	}
	if o.Meta.IsSimulation {
		b.WriteString("  Mode:         SIMULATION\n")
	} else {
		b.WriteString("  Mode:         EXECUTION\n")
	}
	fmt.Fprintf(&b, "  Message:      %s\n", o.Message)
	return b.String()
}
