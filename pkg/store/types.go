// Package store persists the collections the workflow execution substrate
// writes to: prospects, client form panels, chat messages, signature
// procedures, per-tenant workflow module templates and partner missions.
// SQL implementations work against SQLite and Postgres through database/sql.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/veltia-labs/veltia-core/pkg/moduleconfig"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Prospect is one client record, owned by a tenant organization.
type Prospect struct {
	ID          string
	TenantID    string
	Name        string
	Company     string
	Email       string
	ProjectType string
	CreatedAt   time.Time
}

// FormPanel is one form instance assigned to a prospect, with its own
// submission lifecycle and reminder bookkeeping.
type FormPanel struct {
	ID               string
	ProspectID       string
	ProjectType      string
	FormID           string
	Status           string
	MessageTimestamp time.Time
	StepName         string
	ActionID         string
	VerificationMode string

	ReminderEnabled        bool
	ReminderDelayDays      int
	MaxRemindersBeforeTask int
	ReminderCount          int
	LastReminderAt         *time.Time
	TaskCreated            bool

	SubmissionData map[string]any
}

// ChatMessage is one message in a prospect's conversation thread.
type ChatMessage struct {
	ID         string
	ProspectID string
	Sender     string
	Content    string
	IsHTML     bool
	CreatedAt  time.Time
	Metadata   map[string]any
}

// Signer mirrors the signer info carried by a signature procedure.
type Signer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
}

// SignatureMetadata records the provenance of a signature procedure.
type SignatureMetadata struct {
	Source           string   `json:"source"`
	OrderID          string   `json:"orderId"`
	ManagementMode   string   `json:"managementMode"`
	VerificationMode string   `json:"verificationMode"`
	FormIDs          []string `json:"formIds,omitempty"`
	SignatureType    string   `json:"signatureType"`
	Message          string   `json:"message,omitempty"`
}

// SignatureProcedure tracks one document-signing process for a prospect.
type SignatureProcedure struct {
	ID          string
	ProspectID  string
	Status      string
	AccessToken string
	ExpiresAt   time.Time
	SignerName  string
	SignerEmail string
	Signers     []Signer
	FormData    map[string]any
	Metadata    SignatureMetadata
	DocumentKey string
	CreatedAt   time.Time
}

// ModuleTemplate is one per-tenant workflow step configuration, keyed by the
// composite "<projectType>:<moduleId>".
type ModuleTemplate struct {
	TenantID     string
	Key          string
	ModuleName   string
	ActionConfig moduleconfig.ActionConfig
}

// Mission assigns a task to an external partner for a prospect/project.
type Mission struct {
	ID           string
	ProspectID   string
	TenantID     string
	PartnerID    string
	Instructions string
	Blocking     bool
	Status       string
	CreatedAt    time.Time
}

// ProspectStore reads prospect records.
type ProspectStore interface {
	Get(ctx context.Context, id string) (*Prospect, error)
}

// FormPanelStore persists form panels and their reminder bookkeeping.
type FormPanelStore interface {
	Insert(ctx context.Context, panel *FormPanel) error
	Get(ctx context.Context, id string) (*FormPanel, error)
	// Submission returns the submitted data of a prospect's panel for one
	// form, or ErrNotFound when nothing was submitted yet.
	Submission(ctx context.Context, prospectID, formID string) (map[string]any, error)
	// DueReminders returns pending panels whose reminder is enabled and whose
	// last reminder (or initial message) is older than the configured delay.
	DueReminders(ctx context.Context, now time.Time) ([]*FormPanel, error)
	RecordReminder(ctx context.Context, id string, at time.Time) error
	MarkTaskCreated(ctx context.Context, id string) error
}

// ChatStore persists chat messages.
type ChatStore interface {
	Insert(ctx context.Context, msg *ChatMessage) error
}

// SignatureStore persists signature procedures.
type SignatureStore interface {
	Insert(ctx context.Context, proc *SignatureProcedure) error
	Get(ctx context.Context, id string) (*SignatureProcedure, error)
}

// ModuleTemplateStore reads per-tenant workflow step configuration.
type ModuleTemplateStore interface {
	Get(ctx context.Context, tenantID, key string) (*ModuleTemplate, error)
}

// MissionStore persists partner missions.
type MissionStore interface {
	Insert(ctx context.Context, mission *Mission) error
}
