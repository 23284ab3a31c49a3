package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLProspectStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLProspectStore{db: db}
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "name", "company", "email", "project_type", "created_at"}).
		AddRow("p1", "tenant-a", "Jean Martin", "Martin SARL", "jean@martin.fr", "vente", now)
	mock.ExpectQuery("SELECT (.+) FROM prospects").WithArgs("p1").WillReturnRows(rows)

	p, err := store.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", p.TenantID)
	assert.Equal(t, "jean@martin.fr", p.Email)
}

func TestSQLProspectStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLProspectStore{db: db}
	mock.ExpectQuery("SELECT (.+) FROM prospects").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLFormPanelStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLFormPanelStore{db: db}
	now := time.Now()

	panel := &FormPanel{
		ID:                     "panel-1",
		ProspectID:             "p1",
		ProjectType:            "general",
		FormID:                 "idcard",
		Status:                 "pending",
		MessageTimestamp:       now,
		StepName:               "kyc",
		VerificationMode:       "HUMAN",
		ReminderDelayDays:      1,
		MaxRemindersBeforeTask: 3,
	}

	mock.ExpectExec("INSERT INTO client_form_panels").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Insert(context.Background(), panel))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLFormPanelStore_Submission(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLFormPanelStore{db: db}

	rows := sqlmock.NewRows([]string{"submission_data"}).AddRow(`{"nom": "Martin", "ville": "Lyon"}`)
	mock.ExpectQuery("SELECT submission_data").WithArgs("p1", "idcard").WillReturnRows(rows)

	data, err := store.Submission(context.Background(), "p1", "idcard")
	require.NoError(t, err)
	assert.Equal(t, "Lyon", data["ville"])
}

func TestSQLFormPanelStore_Submission_None(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLFormPanelStore{db: db}
	mock.ExpectQuery("SELECT submission_data").
		WithArgs("p1", "rib").
		WillReturnRows(sqlmock.NewRows([]string{"submission_data"}))

	_, err = store.Submission(context.Background(), "p1", "rib")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLModuleTemplateStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLModuleTemplateStore{db: db}

	config := `{"actionType": "FORM", "targetAudience": "PARTENAIRE", "partnerId": "partner-7"}`
	rows := sqlmock.NewRows([]string{"tenant_id", "template_key", "module_name", "action_config"}).
		AddRow("tenant-a", "vente:diag", "Diagnostics", config)
	mock.ExpectQuery("SELECT (.+) FROM workflow_module_templates").
		WithArgs("tenant-a", "vente:diag").
		WillReturnRows(rows)

	tpl, err := store.Get(context.Background(), "tenant-a", "vente:diag")
	require.NoError(t, err)
	assert.Equal(t, "partner-7", tpl.ActionConfig.PartnerID)
	assert.Equal(t, "Diagnostics", tpl.ModuleName)
}

func TestSQLModuleTemplateStore_Get_CorruptConfig(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLModuleTemplateStore{db: db}
	rows := sqlmock.NewRows([]string{"tenant_id", "template_key", "module_name", "action_config"}).
		AddRow("tenant-a", "vente:diag", nil, "{not-json")
	mock.ExpectQuery("SELECT (.+) FROM workflow_module_templates").
		WithArgs("tenant-a", "vente:diag").
		WillReturnRows(rows)

	_, err = store.Get(context.Background(), "tenant-a", "vente:diag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt action config")
}

func TestSQLMissionStore_Insert_GeneratesID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLMissionStore{db: db}
	mock.ExpectExec("INSERT INTO missions").WillReturnResult(sqlmock.NewResult(1, 1))

	mission := &Mission{ProspectID: "p1", TenantID: "tenant-a", PartnerID: "partner-7", Blocking: true, Status: "pending", CreatedAt: time.Now()}
	require.NoError(t, store.Insert(context.Background(), mission))
	assert.NotEmpty(t, mission.ID)
}

func TestSQLChatStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLChatStore{db: db}
	mock.ExpectExec("INSERT INTO chat_messages").WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &ChatMessage{ProspectID: "p1", Sender: "system", Content: "Un formulaire vous attend", CreatedAt: time.Now()}
	require.NoError(t, store.Insert(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
}
