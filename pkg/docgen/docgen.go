// Package docgen produces the contract PDF a signature procedure is built
// around. Generation itself is delegated to a render service; the resulting
// document lands in the document store and only its key travels further.
package docgen

import "context"

// Request carries everything the renderer needs for one document.
type Request struct {
	TemplateID  string         `json:"templateId"`
	ProjectType string         `json:"projectType"`
	ProspectID  string         `json:"prospectId"`
	TenantID    string         `json:"tenantId"`
	FormData    map[string]any `json:"formData,omitempty"`
}

// Result identifies the generated document.
type Result struct {
	DocumentKey string `json:"documentKey"`
	Size        int64  `json:"size"`
}

// Generator is the PDF-generation capability the signature path consumes.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
