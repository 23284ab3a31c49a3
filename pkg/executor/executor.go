package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/veltia-labs/veltia-core/pkg/audit"
	"github.com/veltia-labs/veltia-core/pkg/catalog"
	"github.com/veltia-labs/veltia-core/pkg/docgen"
	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/order"
	"github.com/veltia-labs/veltia-core/pkg/policy"
	"github.com/veltia-labs/veltia-core/pkg/signature"
	"github.com/veltia-labs/veltia-core/pkg/store"
	"github.com/veltia-labs/veltia-core/pkg/store/ledger"
)

// supportedVersions gates the order format the executor understands.
var supportedVersions = func() *semver.Constraints {
	c, err := semver.NewConstraint("^2.0")
	if err != nil {
		panic(err)
	}
	return c
}()

// DefaultCallTimeout bounds each outbound call (document generation, partner
// mission creation) so a hung dependency cannot stall an execution forever.
const DefaultCallTimeout = 30 * time.Second

// productionBaseURL is the public portal origin used for signing links when
// the executor runs in production mode.
const productionBaseURL = "https://app.veltia.io"

// Deps wires the executor's collaborators. Flags, data stores, the chat
// channel, the document generator and the token manager are required; the
// rest default to inert implementations.
type Deps struct {
	Flags      FlagSource
	Prospects  store.ProspectStore
	Panels     store.FormPanelStore
	Chat       notify.Chat
	Signatures store.SignatureStore
	Templates  store.ModuleTemplateStore
	Partners   PartnerTasks
	Generator  docgen.Generator
	Tokens     *signature.TokenManager

	// Ledger, when set, enforces at-most-once execution per order id.
	Ledger ledger.Ledger
	// Policy + PolicyExpr, when set, gate execution on a tenant CEL policy.
	Policy     *policy.Evaluator
	PolicyExpr string

	Audit   audit.Logger
	Toasts  notify.Sink
	Logger  *slog.Logger
	Metrics MetricsRecorder

	// BaseURL is the portal origin for signing links outside production.
	BaseURL     string
	Production  bool
	CallTimeout time.Duration
	Clock       func() time.Time
	// Rand seeds panel id suffixes; tests pin it for deterministic ids.
	Rand *rand.Rand
}

// Executor interprets action orders. Safe for concurrent use.
type Executor struct {
	flags      FlagSource
	prospects  store.ProspectStore
	panels     store.FormPanelStore
	chat       notify.Chat
	signatures store.SignatureStore
	templates  store.ModuleTemplateStore
	partners   PartnerTasks
	generator  docgen.Generator
	tokens     *signature.TokenManager

	ledger     ledger.Ledger
	policy     *policy.Evaluator
	policyExpr string

	audit   audit.Logger
	toasts  notify.Sink
	log     *slog.Logger
	metrics MetricsRecorder

	baseURL     string
	production  bool
	callTimeout time.Duration
	clock       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New validates the dependency set and returns a ready executor.
func New(deps Deps) (*Executor, error) {
	switch {
	case deps.Flags == nil:
		return nil, fmt.Errorf("executor: flag source is required")
	case deps.Prospects == nil:
		return nil, fmt.Errorf("executor: prospect store is required")
	case deps.Panels == nil:
		return nil, fmt.Errorf("executor: form panel store is required")
	case deps.Chat == nil:
		return nil, fmt.Errorf("executor: chat channel is required")
	case deps.Signatures == nil:
		return nil, fmt.Errorf("executor: signature store is required")
	case deps.Templates == nil:
		return nil, fmt.Errorf("executor: module template store is required")
	case deps.Partners == nil:
		return nil, fmt.Errorf("executor: partner task runner is required")
	case deps.Generator == nil:
		return nil, fmt.Errorf("executor: document generator is required")
	case deps.Tokens == nil:
		return nil, fmt.Errorf("executor: token manager is required")
	}

	e := &Executor{
		flags:       deps.Flags,
		prospects:   deps.Prospects,
		panels:      deps.Panels,
		chat:        deps.Chat,
		signatures:  deps.Signatures,
		templates:   deps.Templates,
		partners:    deps.Partners,
		generator:   deps.Generator,
		tokens:      deps.Tokens,
		ledger:      deps.Ledger,
		policy:      deps.Policy,
		policyExpr:  deps.PolicyExpr,
		audit:       deps.Audit,
		toasts:      deps.Toasts,
		log:         deps.Logger,
		metrics:     deps.Metrics,
		baseURL:     deps.BaseURL,
		production:  deps.Production,
		callTimeout: deps.CallTimeout,
		clock:       deps.Clock,
		rng:         deps.Rand,
	}
	if e.audit == nil {
		e.audit = audit.Nop()
	}
	if e.toasts == nil {
		e.toasts = notify.NopSink{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.baseURL == "" {
		e.baseURL = "http://localhost:3000"
	}
	if e.callTimeout <= 0 {
		e.callTimeout = DefaultCallTimeout
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e, nil
}

// Execute runs the guard chain and, when every guard passes, dispatches the
// order to its action strategy. It never returns an error and never lets a
// panic escape: every failure mode becomes a Result.
func (e *Executor) Execute(ctx context.Context, o *order.Order) (res *Result) {
	start := e.clock()
	defer func() {
		if r := recover(); r != nil {
			res = &Result{
				Success: false,
				Status:  StatusError,
				Message: fmt.Sprintf("Erreur d'exécution: %v", r),
			}
		}
		e.finish(ctx, o, res, e.clock().Sub(start))
	}()

	// Guard 1: kill switch. Checked before anything else so a disabled flag
	// wins even over a nil order.
	if !e.flags.ExecutionEnabled(ctx) {
		e.recordGuard(ctx, o, "flag_off")
		return &Result{
			Success: false,
			Status:  StatusBlocked,
			Message: "Exécution réelle désactivée (flag OFF)",
		}
	}

	// Guard 2: simulation marker. A simulated order is a successful no-op.
	if o != nil && o.Meta.IsSimulation {
		e.recordGuard(ctx, o, "simulation")
		return &Result{
			Success: true,
			Status:  StatusSimulated,
			Message: "Simulation: aucune action exécutée",
		}
	}

	// Guard 3: structural validity.
	if o == nil {
		e.recordGuard(ctx, o, "nil_order")
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: "Ordre d'action manquant",
		}
	}
	if o.ProspectID == "" {
		e.recordGuard(ctx, o, "missing_prospect")
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: "ActionOrder.prospectId manquant",
		}
	}
	if o.ActionType == "" {
		e.recordGuard(ctx, o, "missing_action_type")
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: "ActionOrder.actionType manquant",
		}
	}

	if res := e.gateVersion(ctx, o); res != nil {
		return res
	}
	if res := e.gatePolicy(ctx, o); res != nil {
		return res
	}
	if res := e.claimOrder(ctx, o); res != nil {
		return res
	}

	res = e.dispatch(ctx, o)
	e.settleClaim(ctx, o, res)
	return res
}

// gateVersion refuses orders built by a format the executor does not speak.
func (e *Executor) gateVersion(ctx context.Context, o *order.Order) *Result {
	v, err := semver.NewVersion(strings.TrimPrefix(o.Version, "v"))
	if err != nil || !supportedVersions.Check(v) {
		e.recordGuard(ctx, o, "unsupported_version")
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Version d'ordre non supportée: %s", o.Version),
		}
	}
	return nil
}

// gatePolicy evaluates the tenant execution policy. Evaluation errors deny.
func (e *Executor) gatePolicy(ctx context.Context, o *order.Order) *Result {
	if e.policy == nil || e.policyExpr == "" {
		return nil
	}
	allowed, err := e.policy.Allow(e.policyExpr, orderAttributes(o))
	if err != nil {
		e.log.Warn("évaluation de la politique d'exécution échouée",
			"order_id", o.ID, "error", err)
	}
	if err != nil || !allowed {
		e.recordGuard(ctx, o, "policy_denied")
		return &Result{
			Success: false,
			Status:  StatusBlocked,
			Message: "Exécution refusée par la politique du tenant",
		}
	}
	return nil
}

// claimOrder reserves the order id in the execution ledger. A second attempt
// on the same id is refused, which is what makes retried executions safe.
func (e *Executor) claimOrder(ctx context.Context, o *order.Order) *Result {
	if e.ledger == nil {
		return nil
	}
	fingerprint, err := o.Fingerprint()
	if err != nil {
		fingerprint = ""
	}
	claimed, err := e.ledger.Claim(ctx, ledger.Entry{
		OrderID:     o.ID,
		Fingerprint: fingerprint,
		ClaimedAt:   e.clock(),
		Outcome:     ledger.OutcomePending,
	})
	if err != nil {
		e.recordGuard(ctx, o, "ledger_error")
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Erreur du registre d'exécution: %v", err),
		}
	}
	if !claimed {
		e.recordGuard(ctx, o, "duplicate_order")
		return &Result{
			Success: false,
			Status:  StatusBlocked,
			Message: fmt.Sprintf("Ordre déjà exécuté: %s", o.ID),
		}
	}
	return nil
}

// settleClaim records the dispatch outcome against the claim. Best effort:
// the claim row alone already protects against replays.
func (e *Executor) settleClaim(ctx context.Context, o *order.Order, res *Result) {
	if e.ledger == nil || res == nil {
		return
	}
	outcome := ledger.OutcomeError
	if res.Status == StatusExecuted {
		outcome = ledger.OutcomeExecuted
	}
	if err := e.ledger.RecordOutcome(ctx, o.ID, outcome); err != nil {
		e.log.Warn("enregistrement du résultat dans le registre échoué",
			"order_id", o.ID, "error", err)
	}
}

// dispatch routes the order to its action strategy. The set of action types
// is closed; anything else is refused here rather than falling through.
func (e *Executor) dispatch(ctx context.Context, o *order.Order) *Result {
	e.audit.Record(ctx, audit.EventDispatch, string(o.ActionType), o.ID, map[string]any{
		"prospect_id": o.ProspectID,
		"module_id":   o.ModuleID,
		"target":      string(o.Target),
	})

	// The partner audience routes to the mission path regardless of action
	// type: a partner never sees forms or signature procedures directly.
	if o.Target == catalog.AudiencePartenaire {
		return e.executePartnerAction(ctx, o)
	}

	switch o.ActionType {
	case catalog.ActionForm:
		return e.executeFormAction(ctx, o)
	case catalog.ActionSignature:
		return e.executeSignatureAction(ctx, o)
	default:
		return &Result{
			Success: false,
			Status:  StatusError,
			Message: fmt.Sprintf("Type d'action non supporté: %s", o.ActionType),
		}
	}
}

// finish emits the toast, audit record and metric for a terminal outcome.
func (e *Executor) finish(ctx context.Context, o *order.Order, res *Result, elapsed time.Duration) {
	if res == nil {
		return
	}

	level := notify.LevelInfo
	switch res.Status {
	case StatusExecuted:
		level = notify.LevelSuccess
	case StatusError:
		level = notify.LevelError
	}
	e.toasts.Push(level, res.Message)

	e.audit.Record(ctx, audit.EventOutcome, string(res.Status), orderID(o), map[string]any{
		"success": res.Success,
		"message": res.Message,
	})
	if e.metrics != nil {
		e.metrics.RecordExecution(ctx, string(res.Status), elapsed)
	}
	e.log.Info("exécution terminée",
		"order_id", orderID(o),
		"status", string(res.Status),
		"success", res.Success,
		"elapsed", elapsed)
}

func (e *Executor) recordGuard(ctx context.Context, o *order.Order, reason string) {
	e.audit.Record(ctx, audit.EventGuard, reason, orderID(o), nil)
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.callTimeout)
}

func orderID(o *order.Order) string {
	if o == nil {
		return ""
	}
	return o.ID
}

// orderAttributes projects the order into the variable bag a tenant policy
// evaluates against.
func orderAttributes(o *order.Order) map[string]any {
	return map[string]any{
		"id":             o.ID,
		"actionType":     string(o.ActionType),
		"target":         string(o.Target),
		"moduleId":       o.ModuleID,
		"projectType":    o.ProjectType,
		"prospectId":     o.ProspectID,
		"managementMode": string(o.ManagementMode),
	}
}
