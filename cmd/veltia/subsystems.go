package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"    // Postgres driver
	_ "modernc.org/sqlite"   // embedded driver for lite mode

	"github.com/veltia-labs/veltia-core/pkg/audit"
	"github.com/veltia-labs/veltia-core/pkg/config"
	"github.com/veltia-labs/veltia-core/pkg/docgen"
	"github.com/veltia-labs/veltia-core/pkg/documents"
	"github.com/veltia-labs/veltia-core/pkg/executor"
	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/observability"
	"github.com/veltia-labs/veltia-core/pkg/policy"
	"github.com/veltia-labs/veltia-core/pkg/signature"
	"github.com/veltia-labs/veltia-core/pkg/store"
	"github.com/veltia-labs/veltia-core/pkg/store/ledger"
)

// subsystems is everything a command needs wired and ready.
type subsystems struct {
	cfg *config.Config
	db  *sql.DB

	prospects  *store.SQLProspectStore
	panels     *store.SQLFormPanelStore
	chatStore  *store.SQLChatStore
	signatures *store.SQLSignatureStore
	templates  *store.SQLModuleTemplateStore
	missions   *store.SQLMissionStore

	chat     notify.Chat
	realtime *notify.RedisPublisher

	obs  *observability.Provider
	exec *executor.Executor
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(cfg.DatabaseURL, "postgres://") || strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		driver = "postgres"
	}
	db, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// setup wires the stores, notification channels and the executor for the
// given tenant. The execution flag and policy come from the tenant profile;
// a missing profile leaves execution disabled.
func setup(ctx context.Context, cfg *config.Config, tenant string) (*subsystems, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	s := &subsystems{cfg: cfg, db: db}
	if s.prospects, err = store.NewSQLProspectStore(db); err != nil {
		return nil, err
	}
	if s.panels, err = store.NewSQLFormPanelStore(db); err != nil {
		return nil, err
	}
	if s.chatStore, err = store.NewSQLChatStore(db); err != nil {
		return nil, err
	}
	if s.signatures, err = store.NewSQLSignatureStore(db); err != nil {
		return nil, err
	}
	if s.templates, err = store.NewSQLModuleTemplateStore(db); err != nil {
		return nil, err
	}
	if s.missions, err = store.NewSQLMissionStore(db); err != nil {
		return nil, err
	}

	s.realtime = newRealtimePublisher(cfg)
	var realtime notify.Publisher
	if s.realtime != nil {
		realtime = s.realtime
	}
	s.chat = notify.NewStoreChat(s.chatStore, realtime)

	executionEnabled := false
	policyExpr := ""
	baseURL := cfg.BaseURL
	if profile, err := config.LoadProfile(cfg.TenantProfilesDir, tenant); err != nil {
		slog.Warn("profil tenant introuvable, exécution désactivée",
			"tenant", tenant, "error", err)
	} else {
		executionEnabled = profile.ExecutionEnabled
		policyExpr = profile.ExecutionPolicy
		if profile.BaseURL != "" {
			baseURL = profile.BaseURL
		}
	}
	if os.Getenv("VELTIA_EXECUTION_ENABLED") == "true" {
		executionEnabled = true
	}

	docs, err := newDocumentStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	generator := docgen.NewServiceGenerator(cfg.DocgenEndpoint, http.DefaultClient, docs)

	s.obs, err = observability.New(ctx, &observability.Config{
		ServiceName:    "veltia-core",
		ServiceVersion: "2.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.OTelEnabled,
		Insecure:       !cfg.Production(),
	})
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	tokens, err := signature.NewTokenManager([]byte(cfg.SignatureSecret))
	if err != nil {
		return nil, err
	}

	lgr := ledger.NewSQLLedger(db)
	if err := lgr.Init(ctx); err != nil {
		return nil, fmt.Errorf("init execution ledger: %w", err)
	}

	evaluator, err := policy.NewEvaluator()
	if err != nil {
		return nil, err
	}

	enabled := executionEnabled
	s.exec, err = executor.New(executor.Deps{
		Flags:      executor.FlagFunc(func(context.Context) bool { return enabled }),
		Prospects:  s.prospects,
		Panels:     s.panels,
		Chat:       s.chat,
		Signatures: s.signatures,
		Templates:  s.templates,
		Partners:   &executor.StoreMissionRunner{Missions: s.missions},
		Generator:  generator,
		Tokens:     tokens,
		Ledger:     lgr,
		Policy:     evaluator,
		PolicyExpr: policyExpr,
		Audit:      audit.NewLogger(),
		Toasts:     notify.SlogSink{},
		Metrics:    s.obs,

		BaseURL:     baseURL,
		Production:  cfg.Production(),
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *subsystems) Close() {
	if s.obs != nil {
		_ = s.obs.Shutdown(context.Background())
	}
	if s.realtime != nil {
		_ = s.realtime.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// newRealtimePublisher is the one place Redis credentials are read, so every
// command authenticates the same way. Returns nil when Redis is not
// configured.
func newRealtimePublisher(cfg *config.Config) *notify.RedisPublisher {
	if cfg.RedisAddr == "" {
		return nil
	}
	return notify.NewRedisPublisher(cfg.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0, "chat")
}

// newDocumentStore selects the document backend from configuration: S3 with
// presigned URLs, GCS when built with the gcp tag, or the filesystem store
// for lite mode.
func newDocumentStore(ctx context.Context, cfg *config.Config) (documents.Store, error) {
	switch cfg.DocumentStore {
	case "", "fs":
		return documents.NewFSStore(cfg.DocumentDir)
	case "s3":
		if cfg.DocumentBucket == "" {
			return nil, fmt.Errorf("document store s3: DOCUMENT_BUCKET is required")
		}
		return documents.NewS3Store(ctx, documents.S3StoreConfig{
			Bucket:   cfg.DocumentBucket,
			Region:   os.Getenv("AWS_REGION"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
			Prefix:   "documents/",
		})
	case "gcs":
		if cfg.DocumentBucket == "" {
			return nil, fmt.Errorf("document store gcs: DOCUMENT_BUCKET is required")
		}
		return newGCSDocumentStore(ctx, cfg.DocumentBucket)
	default:
		return nil, fmt.Errorf("document store %q inconnu", cfg.DocumentStore)
	}
}
