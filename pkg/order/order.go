// Package order builds normalized action orders out of a workflow step's
// persisted configuration. An Order is a snapshot: once built it must not be
// mutated, with the single exception of the simulation marker the
// orchestrating caller flips before handing the order to the executor.
package order

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/veltia-labs/veltia-core/pkg/catalog"
	"github.com/veltia-labs/veltia-core/pkg/moduleconfig"
)

// Status for a freshly built order. Orders are ephemeral; the status never
// advances on the order itself, only in the execution result.
const StatusPending = "PENDING"

// FormatVersion is stamped on every built order. The executor gates on it.
const FormatVersion = "v2.0"

// SignatureTypeYousign is the signature backend hint carried by SIGNATURE orders.
const SignatureTypeYousign = "yousign"

// ReminderConfig is the resolved reminder section of an order. Only present
// for FORM actions targeting CLIENT.
type ReminderConfig struct {
	Enabled                bool `json:"enabled"`
	DelayDays              int  `json:"delayDays"`
	MaxRemindersBeforeTask int  `json:"maxRemindersBeforeTask"`
}

// Meta carries the simulation marker and generation timestamp. It is excluded
// from the order's external JSON representation.
type Meta struct {
	IsSimulation bool      `json:"isSimulation"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Order is the normalized command object describing one action to perform for
// one prospect and one workflow step.
type Order struct {
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`

	Target          catalog.TargetAudience `json:"target"`
	HasClientAction *bool                  `json:"hasClientAction"`

	ActionType catalog.ActionType `json:"actionType"`
	LegacyType string             `json:"legacyType"`

	FormIDs       []string `json:"formIds"`
	TemplateIDs   []string `json:"templateIds"`
	SignatureType string   `json:"signatureType,omitempty"`

	ManagementMode   catalog.ManagementMode   `json:"managementMode"`
	VerificationMode catalog.VerificationMode `json:"verificationMode"`

	ReminderConfig *ReminderConfig `json:"reminderConfig"`

	ModuleID    string `json:"moduleId"`
	ModuleName  string `json:"moduleName"`
	ProjectType string `json:"projectType"`
	ProspectID  string `json:"prospectId"`
	ActionID    string `json:"actionId,omitempty"`
	Message     string `json:"message"`

	Meta Meta `json:"_meta"`
}

// MarkForExecution clears the simulation marker. This is the only supported
// mutation of a built order, and only the orchestrating caller may do it.
func (o *Order) MarkForExecution() {
	o.Meta.IsSimulation = false
}

// Input is the build tuple: identifying context plus the step's configuration.
type Input struct {
	ModuleID    string
	ModuleName  string
	ProjectType string
	ProspectID  string
	ActionID    string
	Message     string

	ActionConfig *moduleconfig.ActionConfig
}

// Builder produces orders. Clock and random source are injectable so tests can
// pin id and timestamp generation; the zero-value wiring uses wall clock and a
// time-seeded source.
type Builder struct {
	clock func() time.Time
	rng   *rand.Rand
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock pins the builder's clock.
func WithClock(clock func() time.Time) Option {
	return func(b *Builder) { b.clock = clock }
}

// WithRand pins the builder's random source.
func WithRand(rng *rand.Rand) Option {
	return func(b *Builder) { b.rng = rng }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		clock: time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates the input tuple and produces exactly one order. Missing
// required inputs are hard precondition failures the immediate caller must
// handle; they never come back as a degraded order.
func (b *Builder) Build(in Input) (*Order, error) {
	if in.ModuleID == "" {
		return nil, fmt.Errorf("ActionOrder.moduleId est requis")
	}
	if in.ProspectID == "" {
		return nil, fmt.Errorf("ActionOrder.prospectId est requis")
	}
	if in.ActionConfig == nil || in.ActionConfig.ActionType == "" {
		return nil, fmt.Errorf("ActionOrder.actionConfig.actionType est requis")
	}

	cfg := in.ActionConfig
	// Persisted configurations predating the current taxonomy carry legacy
	// type strings; normalize them so downstream dispatch sees one vocabulary.
	actionType := catalog.ActionType(cfg.ActionType)
	if !catalog.IsValidActionType(cfg.ActionType) {
		if t, ok := catalog.ActionTypeFromLegacy(cfg.ActionType); ok {
			actionType = t
		}
	}
	legacyType, _ := catalog.LegacyActionType(actionType)

	target := cfg.TargetAudience.First()
	flag := catalog.AudienceToLegacyFlag(target)

	moduleName := in.ModuleName
	if moduleName == "" {
		moduleName = in.ModuleID
	}
	projectType := in.ProjectType
	if projectType == "" {
		projectType = "unknown"
	}
	message := in.Message
	if message == "" {
		message = fmt.Sprintf("Action %s demandée pour le module %s", actionType, moduleName)
	}

	managementMode := catalog.ManagementMode(cfg.ManagementMode)
	if managementMode == "" {
		managementMode = catalog.ManagementHuman
	}
	verificationMode := catalog.VerificationMode(cfg.VerificationMode)
	if verificationMode == "" {
		verificationMode = catalog.VerificationHuman
	}

	signatureType := ""
	if actionType == catalog.ActionSignature {
		signatureType = SignatureTypeYousign
	}

	now := b.clock()
	return &Order{
		ID:        b.generateID(now),
		Version:   FormatVersion,
		CreatedAt: now,
		Status:    StatusPending,

		Target:          target,
		HasClientAction: flag,

		ActionType: actionType,
		LegacyType: legacyType,

		FormIDs:       append([]string(nil), cfg.AllowedFormIDs...),
		TemplateIDs:   cfg.ResolvedTemplateIDs(),
		SignatureType: signatureType,

		ManagementMode:   managementMode,
		VerificationMode: verificationMode,

		ReminderConfig: resolveReminders(actionType, target, cfg.ReminderConfig),

		ModuleID:    in.ModuleID,
		ModuleName:  moduleName,
		ProjectType: projectType,
		ProspectID:  in.ProspectID,
		ActionID:    in.ActionID,
		Message:     message,

		// Orders always start as simulations; execution requires an explicit
		// MarkForExecution by the caller.
		Meta: Meta{IsSimulation: true, GeneratedAt: now},
	}, nil
}

// resolveReminders only yields a config when the action is a client-facing
// form and the step actually configured reminders. Defaults: disabled, one
// day between reminders, three reminders before a follow-up task.
func resolveReminders(actionType catalog.ActionType, target catalog.TargetAudience, rc *moduleconfig.ReminderConfig) *ReminderConfig {
	if actionType != catalog.ActionForm || target != catalog.AudienceClient || rc == nil {
		return nil
	}
	out := &ReminderConfig{
		Enabled:                rc.Enabled,
		DelayDays:              rc.DelayDays,
		MaxRemindersBeforeTask: rc.MaxRemindersBeforeTask,
	}
	if out.DelayDays == 0 {
		out.DelayDays = 1
	}
	if out.MaxRemindersBeforeTask == 0 {
		out.MaxRemindersBeforeTask = 3
	}
	return out
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// generateID produces "sim-<timestamp36>-<random7>".
func (b *Builder) generateID(now time.Time) string {
	suffix := make([]byte, 7)
	for i := range suffix {
		suffix[i] = base36[b.rng.Intn(len(base36))]
	}
	return fmt.Sprintf("sim-%s-%s", formatBase36(now.UnixMilli()), suffix)
}

func formatBase36(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base36[n%36]
		n /= 36
	}
	return string(buf[i:])
}

// JSON serializes the order for display and logging, excluding the _meta block.
func (o *Order) JSON() (string, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	delete(doc, "_meta")
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
