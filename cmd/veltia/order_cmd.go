package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/veltia-labs/veltia-core/pkg/audit"
	"github.com/veltia-labs/veltia-core/pkg/config"
	"github.com/veltia-labs/veltia-core/pkg/moduleconfig"
	"github.com/veltia-labs/veltia-core/pkg/order"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

// runOrderCmd builds an action order for one prospect/module and either
// prints the simulation or executes it for real.
func runOrderCmd(args []string, stdout, stderr io.Writer, execute bool) int {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	fs.SetOutput(stderr)
	prospectID := fs.String("prospect", "", "prospect id (required)")
	moduleID := fs.String("module", "", "workflow module id (required)")
	moduleName := fs.String("name", "", "module display name")
	projectType := fs.String("project", "", "project type (defaults to the prospect's)")
	actionID := fs.String("action-id", "", "originating action id")
	message := fs.String("message", "", "client-facing message")
	configPath := fs.String("config", "", "action config JSON file (defaults to the tenant's module template)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *prospectID == "" || *moduleID == "" {
		fmt.Fprintln(stderr, "veltia: -prospect and -module are required")
		return 2
	}

	ctx := context.Background()
	cfg := config.Load()

	tenant, prospectProject, err := resolveProspect(ctx, cfg, *prospectID)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	if *projectType == "" {
		*projectType = prospectProject
	}

	s, err := setup(ctx, cfg, tenant)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	defer s.Close()

	actionConfig, err := loadActionConfig(ctx, s, tenant, *projectType, *moduleID, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}

	o, err := order.NewBuilder().Build(order.Input{
		ModuleID:     *moduleID,
		ModuleName:   *moduleName,
		ProjectType:  *projectType,
		ProspectID:   *prospectID,
		ActionID:     *actionID,
		Message:      *message,
		ActionConfig: actionConfig,
	})
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, order.FormatSummary(o))

	if !execute {
		payload, err := o.JSON()
		if err != nil {
			fmt.Fprintf(stderr, "veltia: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, payload)
		return 0
	}

	o.MarkForExecution()
	res := s.exec.Execute(audit.WithTenant(ctx, tenant), o)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	if !res.Success {
		return 1
	}
	return 0
}

// resolveProspect reads the prospect's tenant and project type over a short
// lived connection, before the full subsystem wiring knows which tenant
// profile to load.
func resolveProspect(ctx context.Context, cfg *config.Config, prospectID string) (tenant, projectType string, err error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return "", "", err
	}
	defer db.Close()

	prospects, err := store.NewSQLProspectStore(db)
	if err != nil {
		return "", "", err
	}
	p, err := prospects.Get(ctx, prospectID)
	if err != nil {
		return "", "", fmt.Errorf("prospect %s: %w", prospectID, err)
	}
	return p.TenantID, p.ProjectType, nil
}

func loadActionConfig(ctx context.Context, s *subsystems, tenant, projectType, moduleID, configPath string) (*moduleconfig.ActionConfig, error) {
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		return moduleconfig.Parse(raw)
	}

	key := projectType + ":" + moduleID
	template, err := s.templates.Get(ctx, tenant, key)
	if err != nil {
		return nil, fmt.Errorf("module template %s for tenant %s: %w", key, tenant, err)
	}
	return &template.ActionConfig, nil
}
