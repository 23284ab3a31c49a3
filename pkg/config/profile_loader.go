package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TenantProfile is one tenant's operational configuration, loaded from YAML.
// Profiles control the execution rollout per tenant: the flag, the execution
// policy expression and the portal origin used in client-facing links.
type TenantProfile struct {
	Name   string `yaml:"name" json:"name"`
	Tenant string `yaml:"tenant" json:"tenant"`

	// ExecutionEnabled is the per-tenant execution kill switch.
	ExecutionEnabled bool `yaml:"execution_enabled" json:"execution_enabled"`
	// ExecutionPolicy is a CEL expression over the order attributes; empty
	// allows everything.
	ExecutionPolicy string `yaml:"execution_policy,omitempty" json:"execution_policy,omitempty"`

	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	Reminders ReminderProfile `yaml:"reminders" json:"reminders"`
}

// ReminderProfile holds the tenant defaults applied when a workflow step
// enables reminders without overriding the cadence.
type ReminderProfile struct {
	DelayDays              int `yaml:"delay_days" json:"delay_days"`
	MaxRemindersBeforeTask int `yaml:"max_reminders_before_task" json:"max_reminders_before_task"`
}

// LoadProfile loads a tenant profile YAML by tenant identifier.
// It searches the profiles directory for profile_<tenant>.yaml.
func LoadProfile(profilesDir, tenant string) (*TenantProfile, error) {
	tenant = strings.ToLower(tenant)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", tenant))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", tenant, err)
	}

	var profile TenantProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", tenant, err)
	}

	if profile.Tenant == "" {
		profile.Tenant = tenant
	}

	return &profile, nil
}

// LoadAllProfiles loads all profile_*.yaml files from the profiles directory.
func LoadAllProfiles(profilesDir string) (map[string]*TenantProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*TenantProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile TenantProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if profile.Tenant == "" {
			// Extract tenant from filename: profile_acme.yaml -> acme
			base := filepath.Base(path)
			profile.Tenant = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}

		profiles[profile.Tenant] = &profile
	}

	return profiles, nil
}
