package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/de-tools/report-atlas/pkg/models/domain"
)

const EnvPrefix = "REPORT_ATLAS"

var ErrInvalidJob = errors.New("invalid report job")

// LoadJob reads a report job file (yaml, json or toml). SMTP settings can be
// overridden from the environment, e.g. REPORT_ATLAS_SMTP_HOST.
func LoadJob(path string) (*domain.ReportJob, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.tls", string(domain.TLSOpportunistic))
	v.SetDefault("smtp.timeout", "30s")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job domain.ReportJob
	if err := v.Unmarshal(&job); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := ValidateJob(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ValidateJob checks that every element and block is well formed and that
// blocks only reference declared elements.
func ValidateJob(job *domain.ReportJob) error {
	declared := make(map[string]bool, len(job.Elements))
	for i, el := range job.Elements {
		if el.Name == "" {
			return fmt.Errorf("%w: element %d has no name", ErrInvalidJob, i)
		}
		if declared[el.Name] {
			return fmt.Errorf("%w: element %q declared twice", ErrInvalidJob, el.Name)
		}
		declared[el.Name] = true

		switch el.Kind {
		case domain.ElementCSV, domain.ElementExcel, domain.ElementImage:
			if el.Path == "" {
				return fmt.Errorf("%w: element %q needs a path", ErrInvalidJob, el.Name)
			}
		case domain.ElementSQL:
			if el.Query == "" || el.Profile == "" {
				return fmt.Errorf("%w: element %q needs a query and a profile", ErrInvalidJob, el.Name)
			}
		default:
			return fmt.Errorf("%w: element %q has unknown kind %q", ErrInvalidJob, el.Name, el.Kind)
		}
	}

	for i, b := range job.Blocks {
		var refs []string
		switch b.Type {
		case domain.BlockText:
			if b.Header == "" && b.Body == "" {
				return fmt.Errorf("%w: text block %d is empty", ErrInvalidJob, i)
			}
		case domain.BlockTable:
			refs = b.Tables
		case domain.BlockPlot:
			refs = b.Tables
			if b.X == "" || b.Y == "" {
				return fmt.Errorf("%w: plot block %d needs x and y", ErrInvalidJob, i)
			}
		case domain.BlockImage:
			// images may also be plain paths
		default:
			return fmt.Errorf("%w: block %d has unknown type %q", ErrInvalidJob, i, b.Type)
		}
		if (b.Type == domain.BlockTable || b.Type == domain.BlockPlot) && len(refs) == 0 {
			return fmt.Errorf("%w: %s block %d references no tables", ErrInvalidJob, b.Type, i)
		}
		for _, ref := range refs {
			if !declared[ref] {
				return fmt.Errorf("%w: block %d references unknown element %q", ErrInvalidJob, i, ref)
			}
		}
	}

	if len(job.Email.To) == 0 || job.Email.From == "" {
		return fmt.Errorf("%w: email needs a sender and at least one recipient", ErrInvalidJob)
	}
	return nil
}
