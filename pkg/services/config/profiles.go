package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"

	"github.com/de-tools/report-atlas/pkg/models/domain"
)

const profilesFile = ".reportatlascfg"

// Registry resolves named data source profiles.
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, profile string) (domain.DataSourceProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// DefaultProfilesPath is $HOME/.reportatlascfg.
func DefaultProfilesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, profilesFile), nil
}

func NewRegistry(path string) (Registry, error) {
	// DSNs and init statements routinely contain ';' and '#'
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("load profiles %s: %w", path, err)
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, profile string) (domain.DataSourceProfile, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil || len(section.Keys()) == 0 {
		return domain.DataSourceProfile{}, fmt.Errorf("profile %s not found", profile)
	}

	p := domain.DataSourceProfile{
		Name:        profile,
		Driver:      section.Key("driver").String(),
		DSN:         section.Key("dsn").String(),
		Timeout:     time.Duration(section.Key("timeout_seconds").MustInt(int(domain.DefaultQueryTimeout.Seconds()))) * time.Second,
		Placeholder: domain.PlaceholderStyle(section.Key("placeholder").MustString(string(domain.PlaceholderQuestion))),
	}
	if section.HasKey("init_sql") {
		p.InitSQL = section.Key("init_sql").Strings(";")
	}

	if p.Driver == "" {
		return domain.DataSourceProfile{}, fmt.Errorf("profile %s: driver is required", profile)
	}
	switch p.Placeholder {
	case domain.PlaceholderQuestion, domain.PlaceholderDollar, domain.PlaceholderAtP:
	default:
		return domain.DataSourceProfile{}, fmt.Errorf("profile %s: unknown placeholder style %q", profile, p.Placeholder)
	}
	if p.Timeout <= 0 {
		return domain.DataSourceProfile{}, fmt.Errorf("profile %s: timeout_seconds must be positive", profile)
	}
	return p, nil
}
