package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, dir, tenant, body string) {
	t.Helper()
	path := filepath.Join(dir, "profile_"+tenant+".yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "acme", `
name: Acme Conseil
tenant: acme
execution_enabled: true
execution_policy: 'order.actionType != "SIGNATURE"'
base_url: https://portal.acme.example
reminders:
  delay_days: 2
  max_reminders_before_task: 4
`)

	p, err := LoadProfile(dir, "acme")
	if err != nil {
		t.Fatalf("LoadProfile(acme): %v", err)
	}
	if p.Name != "Acme Conseil" {
		t.Errorf("expected name 'Acme Conseil', got %q", p.Name)
	}
	if !p.ExecutionEnabled {
		t.Error("acme should have execution enabled")
	}
	if p.ExecutionPolicy == "" {
		t.Error("acme should carry an execution policy")
	}
	if p.Reminders.DelayDays != 2 || p.Reminders.MaxRemindersBeforeTask != 4 {
		t.Errorf("unexpected reminder profile: %+v", p.Reminders)
	}
}

func TestLoadProfile_TenantFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "globex", `
name: Globex
execution_enabled: false
`)

	p, err := LoadProfile(dir, "globex")
	if err != nil {
		t.Fatalf("LoadProfile(globex): %v", err)
	}
	if p.Tenant != "globex" {
		t.Errorf("expected tenant filled from filename, got %q", p.Tenant)
	}
	if p.ExecutionEnabled {
		t.Error("globex should have execution disabled")
	}
}

func TestLoadProfile_Missing(t *testing.T) {
	if _, err := LoadProfile(t.TempDir(), "nobody"); err == nil {
		t.Error("expected error for missing profile")
	}
}

func TestLoadAllProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "acme", "name: Acme\nexecution_enabled: true\n")
	writeProfile(t, dir, "globex", "name: Globex\nexecution_enabled: false\n")

	profiles, err := LoadAllProfiles(dir)
	if err != nil {
		t.Fatalf("LoadAllProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	for tenant, p := range profiles {
		if p.Name == "" {
			t.Errorf("profile %s has empty name", tenant)
		}
		if p.Tenant != tenant {
			t.Errorf("profile keyed %s carries tenant %s", tenant, p.Tenant)
		}
	}
}
