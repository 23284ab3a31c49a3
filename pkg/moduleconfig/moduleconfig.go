// Package moduleconfig defines the persisted per-workflow-step configuration
// and validates it at the boundary where it is loaded, so downstream builders
// can assume well-formed input.
package moduleconfig

import (
	"encoding/json"
	"fmt"

	"github.com/veltia-labs/veltia-core/pkg/catalog"
)

// ReminderConfig controls client follow-up on pending forms. Only meaningful
// for FORM actions targeting CLIENT.
type ReminderConfig struct {
	Enabled                bool `json:"enabled"`
	DelayDays              int  `json:"delayDays"`
	MaxRemindersBeforeTask int  `json:"maxRemindersBeforeTask"`
}

// ActionConfig is the declarative unit attached to one workflow step.
type ActionConfig struct {
	ActionType         string          `json:"actionType"`
	TargetAudience     AudienceList    `json:"targetAudience"`
	AllowedFormIDs     []string        `json:"allowedFormIds,omitempty"`
	AllowedTemplateIDs []string        `json:"allowedTemplateIds,omitempty"`
	// TemplateID is the legacy singular form. When present it takes precedence
	// as the first resolved template.
	TemplateID          string          `json:"templateId,omitempty"`
	ManagementMode      string          `json:"managementMode,omitempty"`
	VerificationMode    string          `json:"verificationMode,omitempty"`
	ReminderConfig      *ReminderConfig `json:"reminderConfig,omitempty"`
	PartnerID           string          `json:"partnerId,omitempty"`
	PartnerInstructions string          `json:"partnerInstructions,omitempty"`
	// IsBlocking defaults to true when unset; only an explicit false makes a
	// partner mission non-blocking.
	IsBlocking *bool `json:"isBlocking,omitempty"`
}

// AudienceList accepts either a single audience string or an array of them,
// as both shapes exist in persisted configuration.
type AudienceList []catalog.TargetAudience

func (a *AudienceList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AudienceList{catalog.TargetAudience(single)}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("targetAudience: chaîne ou tableau attendu: %w", err)
	}
	out := make(AudienceList, 0, len(many))
	for _, s := range many {
		out = append(out, catalog.TargetAudience(s))
	}
	*a = out
	return nil
}

func (a AudienceList) MarshalJSON() ([]byte, error) {
	out := make([]string, 0, len(a))
	for _, t := range a {
		out = append(out, string(t))
	}
	return json.Marshal(out)
}

// First returns the audience execution honors. Arrays collapse to their first
// element; multi-audience fan-out is not supported.
func (a AudienceList) First() catalog.TargetAudience {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// ResolvedTemplateIDs unions the singular TemplateID with AllowedTemplateIDs,
// singular first, duplicates removed.
func (c *ActionConfig) ResolvedTemplateIDs() []string {
	if c.TemplateID == "" {
		return append([]string(nil), c.AllowedTemplateIDs...)
	}
	resolved := []string{c.TemplateID}
	for _, id := range c.AllowedTemplateIDs {
		if id != c.TemplateID {
			resolved = append(resolved, id)
		}
	}
	return resolved
}
