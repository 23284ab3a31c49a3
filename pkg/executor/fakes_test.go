package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veltia-labs/veltia-core/pkg/docgen"
	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/signature"
	"github.com/veltia-labs/veltia-core/pkg/store"
	"github.com/veltia-labs/veltia-core/pkg/store/ledger"
)

type fakeProspects struct {
	prospects map[string]*store.Prospect
}

func (f *fakeProspects) Get(_ context.Context, id string) (*store.Prospect, error) {
	p, ok := f.prospects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type fakePanels struct {
	mu          sync.Mutex
	inserted    []*store.FormPanel
	failFormIDs map[string]bool
	submissions map[string]map[string]any
}

func (f *fakePanels) Insert(_ context.Context, panel *store.FormPanel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFormIDs[panel.FormID] {
		return fmt.Errorf("insert refused for %s", panel.FormID)
	}
	f.inserted = append(f.inserted, panel)
	return nil
}

func (f *fakePanels) Get(_ context.Context, id string) (*store.FormPanel, error) {
	for _, p := range f.inserted {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakePanels) Submission(_ context.Context, prospectID, formID string) (map[string]any, error) {
	data, ok := f.submissions[prospectID+"/"+formID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func (f *fakePanels) DueReminders(context.Context, time.Time) ([]*store.FormPanel, error) {
	return nil, nil
}

func (f *fakePanels) RecordReminder(context.Context, string, time.Time) error { return nil }
func (f *fakePanels) MarkTaskCreated(context.Context, string) error           { return nil }

type fakeChat struct {
	mu       sync.Mutex
	messages []*notify.Message
	fail     bool
}

func (f *fakeChat) Send(_ context.Context, msg *notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("chat unavailable")
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeSignatures struct {
	inserted []*store.SignatureProcedure
	fail     bool
}

func (f *fakeSignatures) Insert(_ context.Context, proc *store.SignatureProcedure) error {
	if f.fail {
		return fmt.Errorf("insert refused")
	}
	f.inserted = append(f.inserted, proc)
	return nil
}

func (f *fakeSignatures) Get(_ context.Context, id string) (*store.SignatureProcedure, error) {
	for _, p := range f.inserted {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeTemplates struct {
	templates map[string]*store.ModuleTemplate
}

func (f *fakeTemplates) Get(_ context.Context, tenantID, key string) (*store.ModuleTemplate, error) {
	t, ok := f.templates[tenantID+"/"+key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

type fakePartners struct {
	missions []*store.Mission
	fail     bool
}

func (f *fakePartners) Create(_ context.Context, mission *store.Mission) (string, error) {
	if f.fail {
		return "", fmt.Errorf("partner platform unavailable")
	}
	mission.ID = fmt.Sprintf("mission-%d", len(f.missions)+1)
	f.missions = append(f.missions, mission)
	return mission.ID, nil
}

type fakeGenerator struct {
	calls []docgen.Request
	fail  bool
}

func (f *fakeGenerator) Generate(_ context.Context, req docgen.Request) (*docgen.Result, error) {
	f.calls = append(f.calls, req)
	if f.fail {
		return nil, fmt.Errorf("render service unavailable")
	}
	return &docgen.Result{DocumentKey: "sha256:feedface", Size: 2048}, nil
}

type fakeLedger struct {
	claims   map[string]ledger.Entry
	outcomes map[string]string
	failure  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claims: map[string]ledger.Entry{}, outcomes: map[string]string{}}
}

func (f *fakeLedger) Claim(_ context.Context, e ledger.Entry) (bool, error) {
	if f.failure != nil {
		return false, f.failure
	}
	if _, exists := f.claims[e.OrderID]; exists {
		return false, nil
	}
	f.claims[e.OrderID] = e
	return true, nil
}

func (f *fakeLedger) RecordOutcome(_ context.Context, orderID, outcome string) error {
	f.outcomes[orderID] = outcome
	return nil
}

func (f *fakeLedger) Get(_ context.Context, orderID string) (ledger.Entry, error) {
	e, ok := f.claims[orderID]
	if !ok {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	return e, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []string
	elapsed  []time.Duration
}

func (m *recordingMetrics) RecordExecution(_ context.Context, status string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	m.elapsed = append(m.elapsed, elapsed)
}

type recordingSink struct {
	mu     sync.Mutex
	pushed []string
}

func (s *recordingSink) Push(level notify.Level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed = append(s.pushed, string(level)+": "+message)
}

// testDeps returns a fully wired dependency set over fresh fakes, with the
// execution flag on. Tests override individual fields as needed.
func testDeps() (Deps, *fakePanels, *fakeChat, *fakeSignatures, *fakePartners, *fakeGenerator) {
	panels := &fakePanels{failFormIDs: map[string]bool{}, submissions: map[string]map[string]any{}}
	chat := &fakeChat{}
	signatures := &fakeSignatures{}
	partners := &fakePartners{}
	generator := &fakeGenerator{}
	tokens, err := signature.NewTokenManager([]byte("test-secret"))
	if err != nil {
		panic(err)
	}

	deps := Deps{
		Flags: FlagFunc(func(context.Context) bool { return true }),
		Prospects: &fakeProspects{prospects: map[string]*store.Prospect{
			"prospect-1": {
				ID:          "prospect-1",
				TenantID:    "tenant-1",
				Name:        "Jeanne Martin",
				Company:     "Martin SARL",
				Email:       "jeanne@example.com",
				ProjectType: "kyc",
			},
		}},
		Panels:     panels,
		Chat:       chat,
		Signatures: signatures,
		Templates: &fakeTemplates{templates: map[string]*store.ModuleTemplate{
			"tenant-1/kyc:partner-visit": {
				TenantID:   "tenant-1",
				Key:        "kyc:partner-visit",
				ModuleName: "Visite partenaire",
			},
		}},
		Partners:  partners,
		Generator: generator,
		Tokens:    tokens,
	}
	return deps, panels, chat, signatures, partners, generator
}
