package order

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/veltia-labs/veltia-core/pkg/catalog"
)

// ValidationResult is the outcome of a post-hoc structural check.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate performs the post-hoc structural check on an already-built order.
// It never rejects on identity fields (the builder guarantees those); it
// checks what execution will need.
func Validate(o *Order) ValidationResult {
	var errs []string
	if o == nil {
		return ValidationResult{Valid: false, Errors: []string{"ordre manquant"}}
	}
	if o.ProspectID == "" {
		errs = append(errs, "prospectId manquant")
	}
	if o.ActionType == "" {
		errs = append(errs, "actionType manquant")
	}
	if o.Target == "" {
		errs = append(errs, "cible manquante")
	}
	switch o.ActionType {
	case catalog.ActionForm, catalog.ActionSignature:
		if len(o.FormIDs) == 0 {
			errs = append(errs, fmt.Sprintf("au moins un formulaire est requis pour %s", o.ActionType))
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Fingerprint returns the sha256 of the order's canonical JSON (RFC 8785),
// excluding _meta so the simulated and executed renditions of the same order
// share a fingerprint. Used as the content hash in the execution ledger and
// audit trail.
func (o *Order) Fingerprint() (string, error) {
	body, err := o.JSON()
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform([]byte(body))
	if err != nil {
		return "", fmt.Errorf("canonicalisation de l'ordre: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
