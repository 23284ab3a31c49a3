// Package catalog is the single source of truth for the mapping between the
// workflow configuration vocabulary (action types, target audiences,
// management and verification modes) and the legacy execution substrate's
// vocabulary. Everything here is a pure lookup: no I/O, safe from any
// goroutine.
package catalog

import "log/slog"

// ActionType identifies what a workflow step does when it fires.
type ActionType string

const (
	ActionForm      ActionType = "FORM"
	ActionSignature ActionType = "SIGNATURE"
)

// TargetAudience identifies who a workflow action is delivered to.
type TargetAudience string

const (
	AudienceClient     TargetAudience = "CLIENT"
	AudienceCommercial TargetAudience = "COMMERCIAL"
	AudiencePartenaire TargetAudience = "PARTENAIRE"
)

// ManagementMode and VerificationMode are configuration labels only; execution
// behavior is identical regardless of mode.
type ManagementMode string

const (
	ManagementAI    ManagementMode = "AI"
	ManagementHuman ManagementMode = "HUMAN"
)

type VerificationMode string

const (
	VerificationAI    VerificationMode = "AI"
	VerificationHuman VerificationMode = "HUMAN"
)

var legacyByType = map[ActionType]string{
	ActionForm:      "show_form",
	ActionSignature: "start_signature",
}

var typeByLegacy = map[string]ActionType{
	"show_form":       ActionForm,
	"start_signature": ActionSignature,
}

var legacyByManagement = map[ManagementMode]string{
	ManagementAI:    "automatic",
	ManagementHuman: "manual",
}

var legacyByVerification = map[VerificationMode]string{
	VerificationAI:    "ai",
	VerificationHuman: "human",
}

// LegacyActionType returns the legacy type string for t, or ok=false when t is
// not part of the catalog.
func LegacyActionType(t ActionType) (string, bool) {
	s, ok := legacyByType[t]
	return s, ok
}

// ActionTypeFromLegacy is the inverse of LegacyActionType.
func ActionTypeFromLegacy(s string) (ActionType, bool) {
	t, ok := typeByLegacy[s]
	return t, ok
}

// LegacyManagementMode returns the legacy equivalent of m ("automatic"/"manual").
func LegacyManagementMode(m ManagementMode) (string, bool) {
	s, ok := legacyByManagement[m]
	return s, ok
}

// LegacyVerificationMode returns the legacy equivalent of v ("ai"/"human").
func LegacyVerificationMode(v VerificationMode) (string, bool) {
	s, ok := legacyByVerification[v]
	return s, ok
}

// AudienceToLegacyFlag maps an audience to the legacy tri-state client flag:
// true for CLIENT, false for COMMERCIAL, nil for PARTENAIRE.
//
// An unrecognized audience falls back to true (client-facing delivery). This
// fail-open default is deliberate policy, inherited from the legacy substrate:
// when in doubt, the action stays visible to the client. The fallback is
// logged so occurrences stay auditable.
func AudienceToLegacyFlag(a TargetAudience) *bool {
	switch a {
	case AudienceClient:
		return boolPtr(true)
	case AudienceCommercial:
		return boolPtr(false)
	case AudiencePartenaire:
		return nil
	default:
		slog.Warn("audience inconnue, repli sur CLIENT", "audience", string(a))
		return boolPtr(true)
	}
}

// FirstAudience collapses an audience list to its first element. Multi-audience
// fan-out is not supported; configuration may carry several audiences but
// execution only honors the first.
func FirstAudience(audiences []TargetAudience) TargetAudience {
	if len(audiences) == 0 {
		return ""
	}
	return audiences[0]
}

// AudienceFromLegacyFlag is the inverse of AudienceToLegacyFlag. A nil flag
// maps to PARTENAIRE.
func AudienceFromLegacyFlag(flag *bool) TargetAudience {
	switch {
	case flag == nil:
		return AudiencePartenaire
	case *flag:
		return AudienceClient
	default:
		return AudienceCommercial
	}
}

// Validation predicates. Pure membership tests; they never fail, they answer.

func IsValidActionType(s string) bool {
	_, ok := legacyByType[ActionType(s)]
	return ok
}

func IsValidTarget(s string) bool {
	switch TargetAudience(s) {
	case AudienceClient, AudienceCommercial, AudiencePartenaire:
		return true
	}
	return false
}

func IsValidManagementMode(s string) bool {
	_, ok := legacyByManagement[ManagementMode(s)]
	return ok
}

func IsValidVerificationMode(s string) bool {
	_, ok := legacyByVerification[VerificationMode(s)]
	return ok
}

func boolPtr(b bool) *bool { return &b }
