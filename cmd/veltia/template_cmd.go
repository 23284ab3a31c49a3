package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/veltia-labs/veltia-core/pkg/config"
	"github.com/veltia-labs/veltia-core/pkg/moduleconfig"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

// runTemplateCmd validates an action config file and stores it as the
// tenant's module template under "<project>:<module>".
func runTemplateCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("template", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tenant := fs.String("tenant", "", "tenant id (required)")
	projectType := fs.String("project", "", "project type (required)")
	moduleID := fs.String("module", "", "workflow module id (required)")
	moduleName := fs.String("name", "", "module display name")
	configPath := fs.String("config", "", "action config JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *tenant == "" || *projectType == "" || *moduleID == "" || *configPath == "" {
		fmt.Fprintln(stderr, "veltia: -tenant, -project, -module and -config are required")
		return 2
	}

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	actionConfig, err := moduleconfig.Parse(raw)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: configuration invalide: %v\n", err)
		return 1
	}

	ctx := context.Background()
	cfg := config.Load()
	db, err := openDatabase(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}
	defer db.Close()

	templates, err := store.NewSQLModuleTemplateStore(db)
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}

	key := *projectType + ":" + *moduleID
	err = templates.Put(ctx, &store.ModuleTemplate{
		TenantID:     *tenant,
		Key:          key,
		ModuleName:   *moduleName,
		ActionConfig: *actionConfig,
	})
	if err != nil {
		fmt.Fprintf(stderr, "veltia: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "template %s enregistré pour %s\n", key, *tenant)
	return 0
}
