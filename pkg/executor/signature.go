package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/veltia-labs/veltia-core/pkg/docgen"
	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/order"
	"github.com/veltia-labs/veltia-core/pkg/signature"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

// executeSignatureAction runs the signature pipeline. Unlike the form path
// there is no partial success: the procedure is a single deliverable and any
// failed step aborts the whole operation.
func (e *Executor) executeSignatureAction(ctx context.Context, o *order.Order) *Result {
	prospect, err := e.prospects.Get(ctx, o.ProspectID)
	if err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Prospect introuvable: %s", o.ProspectID),
		}
	}

	// Collect whatever the prospect already submitted for the referenced
	// forms. Missing submissions are skipped, not fatal.
	formData := map[string]any{}
	for _, formID := range o.FormIDs {
		data, err := e.panels.Submission(ctx, o.ProspectID, formID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				e.log.Warn("lecture des données de formulaire échouée",
					"order_id", o.ID, "form_id", formID, "error", err)
			}
			continue
		}
		for k, v := range data {
			formData[k] = v
		}
	}

	signerEmail := prospect.Email
	if signerEmail == "" {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: "Email du signataire manquant",
		}
	}
	signerName := signerDisplayName(prospect)

	// A signature procedure without a contract template is meaningless, so
	// this aborts before any document work happens.
	if len(o.TemplateIDs) == 0 || o.TemplateIDs[0] == "" {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: "Signature impossible: aucun template de contrat configuré",
		}
	}
	templateID := o.TemplateIDs[0]

	genCtx, cancel := e.callContext(ctx)
	defer cancel()
	doc, err := e.generator.Generate(genCtx, docgen.Request{
		TemplateID:  templateID,
		ProjectType: o.ProjectType,
		ProspectID:  o.ProspectID,
		TenantID:    prospect.TenantID,
		FormData:    formData,
	})
	if err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Génération du document échouée: %v", err),
		}
	}

	procedureID := uuid.New().String()
	token, err := e.tokens.Issue(procedureID, o.ProspectID, signerEmail)
	if err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Génération du jeton d'accès échouée: %v", err),
		}
	}

	signatureType := o.SignatureType
	if signatureType == "" {
		signatureType = "internal"
	}

	procedure := &store.SignatureProcedure{
		ID:          procedureID,
		ProspectID:  o.ProspectID,
		Status:      "pending",
		AccessToken: token,
		ExpiresAt:   e.clock().Add(signature.TokenLifetime),
		SignerName:  signerName,
		SignerEmail: signerEmail,
		Signers: []store.Signer{{
			Name:        signerName,
			Email:       signerEmail,
			AccessToken: token,
		}},
		FormData: formData,
		Metadata: store.SignatureMetadata{
			Source:           "workflow_v2",
			OrderID:          o.ID,
			ManagementMode:   string(o.ManagementMode),
			VerificationMode: string(o.VerificationMode),
			FormIDs:          o.FormIDs,
			SignatureType:    signatureType,
			Message:          o.Message,
		},
		DocumentKey: doc.DocumentKey,
		CreatedAt:   e.clock(),
	}
	if err := e.signatures.Insert(ctx, procedure); err != nil {
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Création de la procédure de signature échouée: %v", err),
		}
	}

	if o.HasClientAction != nil && *o.HasClientAction {
		link := fmt.Sprintf("%s/signature/%s?token=%s", e.signingBaseURL(), procedureID, token)
		notify.BestEffortSend(ctx, e.chat, &notify.Message{
			ProspectID: o.ProspectID,
			Sender:     "system",
			Content: fmt.Sprintf(
				`<p>Un document est prêt pour signature.</p><p><a href="%s">Signer le document</a></p>`, link),
			HTML: true,
			Metadata: map[string]any{
				"procedureId": procedureID,
			},
		})
	}

	return &Result{
		Success: true,
		Status:  StatusExecuted,
		Message: "Procédure de signature créée",
		Data: map[string]any{
			"procedureId": procedureID,
			"signerEmail": signerEmail,
			"documentKey": doc.DocumentKey,
		},
	}
}

func (e *Executor) signingBaseURL() string {
	if e.production {
		return productionBaseURL
	}
	return e.baseURL
}

// signerDisplayName falls back through the prospect's identifying fields so
// the procedure always carries a printable name.
func signerDisplayName(p *store.Prospect) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Company != "" {
		return p.Company
	}
	if at := strings.Index(p.Email, "@"); at > 0 {
		return p.Email[:at]
	}
	return "Client"
}
