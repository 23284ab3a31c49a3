package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltia-labs/veltia-core/pkg/catalog"
	"github.com/veltia-labs/veltia-core/pkg/order"
	"github.com/veltia-labs/veltia-core/pkg/policy"
)

func boolPtr(b bool) *bool { return &b }

func validFormOrder() *order.Order {
	o := &order.Order{
		ID:              "sim-abc-1234567",
		Version:         order.FormatVersion,
		Status:          order.StatusPending,
		Target:          catalog.AudienceClient,
		HasClientAction: boolPtr(true),
		ActionType:      catalog.ActionForm,
		FormIDs:         []string{"form-identity"},
		ModuleID:        "idcard",
		ModuleName:      "Pièce d'identité",
		ProjectType:     "kyc",
		ProspectID:      "prospect-1",
		Message:         "Merci de compléter le formulaire",
	}
	return o
}

func newTestExecutor(t *testing.T, deps Deps) *Executor {
	t.Helper()
	e, err := New(deps)
	require.NoError(t, err)
	return e
}

func TestExecuteFlagOffBlocksEverything(t *testing.T) {
	deps, panels, chat, _, _, _ := testDeps()
	deps.Flags = FlagFunc(func(context.Context) bool { return false })
	e := newTestExecutor(t, deps)

	// The flag guard wins even over a nil order.
	res := e.Execute(context.Background(), nil)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Contains(t, res.Message, "flag OFF")

	res = e.Execute(context.Background(), validFormOrder())
	assert.Equal(t, StatusBlocked, res.Status)

	assert.Empty(t, panels.inserted)
	assert.Empty(t, chat.messages)
}

func TestExecuteSimulationIsASuccessfulNoOp(t *testing.T) {
	deps, panels, chat, signatures, partners, generator := testDeps()
	e := newTestExecutor(t, deps)

	o := validFormOrder()
	o.Meta.IsSimulation = true

	res := e.Execute(context.Background(), o)
	assert.True(t, res.Success)
	assert.Equal(t, StatusSimulated, res.Status)

	assert.Empty(t, panels.inserted)
	assert.Empty(t, chat.messages)
	assert.Empty(t, signatures.inserted)
	assert.Empty(t, partners.missions)
	assert.Empty(t, generator.calls)
}

func TestExecuteStructuralGuards(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	e := newTestExecutor(t, deps)
	ctx := context.Background()

	res := e.Execute(ctx, nil)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "Ordre d'action manquant", res.Message)

	o := validFormOrder()
	o.ProspectID = ""
	res = e.Execute(ctx, o)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "ActionOrder.prospectId manquant", res.Message)

	o = validFormOrder()
	o.ActionType = ""
	res = e.Execute(ctx, o)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "ActionOrder.actionType manquant", res.Message)
}

func TestExecuteUnsupportedActionType(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	e := newTestExecutor(t, deps)

	o := validFormOrder()
	o.ActionType = catalog.ActionType("EMAIL")

	res := e.Execute(context.Background(), o)
	assert.False(t, res.Success)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "Type d'action non supporté: EMAIL", res.Message)
}

func TestExecuteRejectsUnsupportedVersion(t *testing.T) {
	deps, panels, _, _, _, _ := testDeps()
	e := newTestExecutor(t, deps)

	o := validFormOrder()
	o.Version = "v1.0"

	res := e.Execute(context.Background(), o)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "Version d'ordre non supportée")
	assert.Empty(t, panels.inserted)
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	deps.Flags = FlagFunc(func(context.Context) bool { panic("boom") })
	e := newTestExecutor(t, deps)

	res := e.Execute(context.Background(), validFormOrder())
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "Erreur d'exécution: boom", res.Message)
}

func TestExecutePushesToastForTerminalOutcome(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	sink := &recordingSink{}
	deps.Toasts = sink
	e := newTestExecutor(t, deps)

	e.Execute(context.Background(), validFormOrder())
	require.Len(t, sink.pushed, 1)
	assert.Contains(t, sink.pushed[0], "success: ")
}

func TestExecuteRecordsMetricsPerOutcome(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	metrics := &recordingMetrics{}
	deps.Metrics = metrics
	e := newTestExecutor(t, deps)
	ctx := context.Background()

	e.Execute(ctx, validFormOrder())
	e.Execute(ctx, nil)

	require.Equal(t, []string{"executed", "error"}, metrics.statuses)
	assert.Len(t, metrics.elapsed, 2)
}

func TestExecuteDuplicateOrderIsBlocked(t *testing.T) {
	deps, panels, _, _, _, _ := testDeps()
	deps.Ledger = newFakeLedger()
	e := newTestExecutor(t, deps)
	ctx := context.Background()

	first := e.Execute(ctx, validFormOrder())
	assert.Equal(t, StatusExecuted, first.Status)
	require.Len(t, panels.inserted, 1)

	second := e.Execute(ctx, validFormOrder())
	assert.False(t, second.Success)
	assert.Equal(t, StatusBlocked, second.Status)
	assert.Contains(t, second.Message, "Ordre déjà exécuté")
	// No second panel was created.
	assert.Len(t, panels.inserted, 1)
}

func TestExecuteLedgerRecordsOutcome(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	led := newFakeLedger()
	deps.Ledger = led
	e := newTestExecutor(t, deps)

	o := validFormOrder()
	e.Execute(context.Background(), o)
	assert.Equal(t, "EXECUTED", led.outcomes[o.ID])
}

func TestExecutePolicyDenies(t *testing.T) {
	deps, panels, _, _, _, _ := testDeps()
	ev, err := policy.NewEvaluator()
	require.NoError(t, err)
	deps.Policy = ev
	deps.PolicyExpr = `order.actionType != "FORM"`
	e := newTestExecutor(t, deps)

	res := e.Execute(context.Background(), validFormOrder())
	assert.False(t, res.Success)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Contains(t, res.Message, "politique")
	assert.Empty(t, panels.inserted)
}

func TestExecuteBrokenPolicyFailsClosed(t *testing.T) {
	deps, panels, _, _, _, _ := testDeps()
	ev, err := policy.NewEvaluator()
	require.NoError(t, err)
	deps.Policy = ev
	deps.PolicyExpr = `order.actionType ==` // does not compile
	e := newTestExecutor(t, deps)

	res := e.Execute(context.Background(), validFormOrder())
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Empty(t, panels.inserted)
}

func TestCanExecutePreflight(t *testing.T) {
	deps, panels, _, _, _, _ := testDeps()
	e := newTestExecutor(t, deps)
	ctx := context.Background()

	assert.True(t, e.CanExecute(ctx, validFormOrder()).CanExecute)

	pf := e.CanExecute(ctx, nil)
	assert.False(t, pf.CanExecute)
	assert.Equal(t, "Ordre d'action manquant", pf.Reason)

	simulated := validFormOrder()
	simulated.Meta.IsSimulation = true
	assert.False(t, e.CanExecute(ctx, simulated).CanExecute)

	unknown := validFormOrder()
	unknown.ActionType = catalog.ActionType("EMAIL")
	pf = e.CanExecute(ctx, unknown)
	assert.False(t, pf.CanExecute)
	assert.Contains(t, pf.Reason, "non supporté")

	// Preflight never writes.
	assert.Empty(t, panels.inserted)
}

func TestNewRequiresCollaborators(t *testing.T) {
	deps, _, _, _, _, _ := testDeps()
	deps.Chat = nil
	_, err := New(deps)
	assert.Error(t, err)
}
