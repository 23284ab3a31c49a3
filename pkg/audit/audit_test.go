package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltia-labs/veltia-core/pkg/audit"
)

func TestLogger_Record_WritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := audit.NewLoggerWithWriter(&buf)

	err := logger.Record(context.Background(), audit.EventGuard, "flag_check", "sim-abc-1234567", nil)
	require.NoError(t, err)

	output := buf.String()
	assert.True(t, strings.HasPrefix(output, "AUDIT: "))

	jsonPart := strings.TrimSpace(strings.TrimPrefix(output, "AUDIT: "))

	var event audit.Event
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &event))

	assert.Equal(t, audit.EventGuard, event.Type)
	assert.Equal(t, "flag_check", event.Action)
	assert.Equal(t, "sim-abc-1234567", event.Resource)
	assert.Equal(t, "system", event.TenantID)
	assert.NotEmpty(t, event.ID)
	// UUID format: 8-4-4-4-12
	assert.Len(t, event.ID, 36)
}

func TestLogger_Record_TenantFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := audit.NewLoggerWithWriter(&buf)

	ctx := audit.WithTenant(context.Background(), "tenant-a")
	require.NoError(t, logger.Record(ctx, audit.EventOutcome, "executed", "sim-1", map[string]any{"status": "executed"}))

	jsonPart := strings.TrimSpace(strings.TrimPrefix(buf.String(), "AUDIT: "))
	var event audit.Event
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &event))

	assert.Equal(t, "tenant-a", event.TenantID)
	assert.Equal(t, "executed", event.Metadata["status"])
}

func TestNop_DiscardsSilently(t *testing.T) {
	require.NoError(t, audit.Nop().Record(context.Background(), audit.EventSystem, "x", "y", nil))
}
