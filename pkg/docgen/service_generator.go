package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/veltia-labs/veltia-core/pkg/documents"
)

// ServiceGenerator calls an HTTP render service and stores the returned PDF
// in the document store.
type ServiceGenerator struct {
	endpoint string
	client   *http.Client
	docs     documents.Store
}

// NewServiceGenerator creates a generator against the render service at
// endpoint. A nil client falls back to http.DefaultClient.
func NewServiceGenerator(endpoint string, client *http.Client, docs documents.Store) *ServiceGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &ServiceGenerator{endpoint: endpoint, client: client, docs: docs}
}

func (g *ServiceGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.TemplateID == "" {
		return nil, fmt.Errorf("templateId est requis pour la génération")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, string(detail))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("render service returned an empty document")
	}

	key, err := g.docs.Store(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("store generated document: %w", err)
	}

	return &Result{DocumentKey: key, Size: int64(len(pdf))}, nil
}
