package order

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltia-labs/veltia-core/pkg/catalog"
	"github.com/veltia-labs/veltia-core/pkg/moduleconfig"
)

func fixedBuilder() *Builder {
	clock := func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return NewBuilder(WithClock(clock), WithRand(rand.New(rand.NewSource(42))))
}

func formInput() Input {
	return Input{
		ModuleID:   "step1",
		ProspectID: "p1",
		ActionConfig: &moduleconfig.ActionConfig{
			ActionType:     "FORM",
			TargetAudience: moduleconfig.AudienceList{catalog.AudienceClient},
			AllowedFormIDs: []string{"f1", "f2"},
		},
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder()

	o1, err := b.Build(formInput())
	require.NoError(t, err)
	o2, err := b.Build(formInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o1.Status)
	assert.True(t, o1.Meta.IsSimulation)
	assert.Equal(t, []string{"f1", "f2"}, o1.FormIDs)
	require.NotNil(t, o1.HasClientAction)
	assert.True(t, *o1.HasClientAction)
	assert.Equal(t, "show_form", o1.LegacyType)

	// Identical inputs differ only in id and timestamps.
	assert.NotEqual(t, o1.ID, o2.ID)
	assert.Equal(t, o1.FormIDs, o2.FormIDs)
	assert.Equal(t, o1.Target, o2.Target)
	assert.Equal(t, o1.Message, o2.Message)
}

func TestBuild_IDFormat(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)

	parts := strings.SplitN(o.ID, "-", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "sim", parts[0])
	assert.NotEmpty(t, parts[1])
	assert.Len(t, parts[2], 7)
}

func TestBuild_MissingRequiredInputs(t *testing.T) {
	b := NewBuilder()

	_, err := b.Build(Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moduleId est requis")

	_, err = b.Build(Input{ModuleID: "m1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prospectId est requis")

	_, err = b.Build(Input{ModuleID: "m1", ProspectID: "p1", ActionConfig: &moduleconfig.ActionConfig{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actionType est requis")
}

func TestBuild_Defaults(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)

	assert.Equal(t, "step1", o.ModuleName, "moduleName defaults to moduleId")
	assert.Equal(t, "unknown", o.ProjectType)
	assert.Contains(t, o.Message, "FORM")
	assert.Contains(t, o.Message, "step1")
	assert.Equal(t, catalog.ManagementHuman, o.ManagementMode)
	assert.Equal(t, catalog.VerificationHuman, o.VerificationMode)
	assert.Empty(t, o.SignatureType)
}

func TestBuild_TemplateMerge(t *testing.T) {
	in := Input{
		ModuleID:   "contrat",
		ProspectID: "p1",
		ActionConfig: &moduleconfig.ActionConfig{
			ActionType:         "SIGNATURE",
			TargetAudience:     moduleconfig.AudienceList{catalog.AudienceClient},
			TemplateID:         "t1",
			AllowedTemplateIDs: []string{"t1", "t2"},
		},
	}

	o, err := fixedBuilder().Build(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, o.TemplateIDs)
	assert.Equal(t, SignatureTypeYousign, o.SignatureType)
	assert.Equal(t, "start_signature", o.LegacyType)
}

func TestBuild_ReminderGating(t *testing.T) {
	rc := &moduleconfig.ReminderConfig{Enabled: true}

	commercial := Input{
		ModuleID:   "m1",
		ProspectID: "p1",
		ActionConfig: &moduleconfig.ActionConfig{
			ActionType:     "FORM",
			TargetAudience: moduleconfig.AudienceList{catalog.AudienceCommercial},
			ReminderConfig: rc,
		},
	}
	o, err := fixedBuilder().Build(commercial)
	require.NoError(t, err)
	assert.Nil(t, o.ReminderConfig, "reminders only apply to CLIENT targets")

	client := commercial
	client.ActionConfig = &moduleconfig.ActionConfig{
		ActionType:     "FORM",
		TargetAudience: moduleconfig.AudienceList{catalog.AudienceClient},
		ReminderConfig: rc,
	}
	o, err = fixedBuilder().Build(client)
	require.NoError(t, err)
	require.NotNil(t, o.ReminderConfig)
	assert.True(t, o.ReminderConfig.Enabled)
	assert.Equal(t, 1, o.ReminderConfig.DelayDays)
	assert.Equal(t, 3, o.ReminderConfig.MaxRemindersBeforeTask)
}

func TestBuild_ReminderAbsentWhenNotConfigured(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)
	assert.Nil(t, o.ReminderConfig)
}

func TestBuild_NormalizesLegacyActionType(t *testing.T) {
	in := formInput()
	in.ActionConfig.ActionType = "show_form"
	in.ActionConfig.ReminderConfig = &moduleconfig.ReminderConfig{Enabled: true}

	o, err := fixedBuilder().Build(in)
	require.NoError(t, err)
	assert.Equal(t, catalog.ActionForm, o.ActionType)
	assert.Equal(t, "show_form", o.LegacyType)
	require.NotNil(t, o.ReminderConfig)
	assert.True(t, o.ReminderConfig.Enabled)

	in = formInput()
	in.ActionConfig.ActionType = "start_signature"
	o, err = fixedBuilder().Build(in)
	require.NoError(t, err)
	assert.Equal(t, catalog.ActionSignature, o.ActionType)
	assert.Equal(t, SignatureTypeYousign, o.SignatureType)
}

func TestBuild_UnknownActionTypePassesThrough(t *testing.T) {
	// Unknown types are not the builder's to refuse; dispatch reports them.
	in := formInput()
	in.ActionConfig.ActionType = "EMAIL"

	o, err := fixedBuilder().Build(in)
	require.NoError(t, err)
	assert.Equal(t, catalog.ActionType("EMAIL"), o.ActionType)
	assert.Empty(t, o.LegacyType)
}

func TestBuild_AudienceArrayCollapses(t *testing.T) {
	in := formInput()
	in.ActionConfig.TargetAudience = moduleconfig.AudienceList{catalog.AudiencePartenaire, catalog.AudienceClient}

	o, err := fixedBuilder().Build(in)
	require.NoError(t, err)
	assert.Equal(t, catalog.AudiencePartenaire, o.Target)
	assert.Nil(t, o.HasClientAction)
}

func TestJSON_ExcludesMeta(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)

	body, err := o.JSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.NotContains(t, doc, "_meta")
	assert.Equal(t, "PENDING", doc["status"])
	assert.Equal(t, "v2.0", doc["version"])
}

func TestFormatSummary(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)

	summary := FormatSummary(o)
	assert.Contains(t, summary, o.ID)
	assert.Contains(t, summary, "FORM")
	assert.Contains(t, summary, "f1, f2")
	assert.Contains(t, summary, "SIMULATION")

	o.MarkForExecution()
	assert.Contains(t, FormatSummary(o), "EXECUTION")
}

func TestValidate(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)
	res := Validate(o)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	res = Validate(nil)
	assert.False(t, res.Valid)

	noForms := *o
	noForms.FormIDs = nil
	res = Validate(&noForms)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "au moins un formulaire")
}

func TestFingerprint_StableAcrossSimulationToggle(t *testing.T) {
	o, err := fixedBuilder().Build(formInput())
	require.NoError(t, err)

	fp1, err := o.Fingerprint()
	require.NoError(t, err)
	require.Len(t, fp1, 64)

	o.MarkForExecution()
	fp2, err := o.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "_meta is excluded from the fingerprint")
}
