package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/config"
	"github.com/de-tools/report-atlas/pkg/services/job"
	"github.com/de-tools/report-atlas/pkg/services/mailer"
	"github.com/de-tools/report-atlas/pkg/store/files"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

// Env carries what the commands share. ProfilesPath is bound to a
// persistent flag, so profiles are only read when a command needs them.
type Env struct {
	ProfilesPath string
	Opener       files.Opener
	Connect      job.Connector
	// Sender overrides the SMTP transport configured in a job.
	Sender mailer.Sender
}

func (e *Env) profilesPath() (string, error) {
	if e.ProfilesPath != "" {
		return e.ProfilesPath, nil
	}
	return config.DefaultProfilesPath()
}

func (e *Env) Profiles() (config.Registry, error) {
	path, err := e.profilesPath()
	if err != nil {
		return nil, err
	}
	return config.NewRegistry(path)
}

// Runner builds a job runner. A missing profiles file is fine as long as
// the job reads no SQL.
func (e *Env) Runner() (*job.Runner, error) {
	opts := []job.Option{job.WithOpener(e.Opener), job.WithConnector(e.connector())}
	if e.Sender != nil {
		opts = append(opts, job.WithSender(e.Sender))
	}

	path, err := e.profilesPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return job.NewRunner(nil, opts...), nil
	}
	reg, err := config.NewRegistry(path)
	if err != nil {
		return nil, err
	}
	return job.NewRunner(reg, opts...), nil
}

// WithProfile connects to the named profile and runs fn under the profile
// timeout. The connection is closed when fn returns.
func (e *Env) WithProfile(ctx context.Context, name string, fn func(ctx context.Context, db *sql.DB, profile domain.DataSourceProfile) error) error {
	reg, err := e.Profiles()
	if err != nil {
		return err
	}
	profile, err := reg.GetProfile(ctx, name)
	if err != nil {
		return err
	}

	timeout := profile.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := e.connector()(ctx, profile)
	if err != nil {
		return fmt.Errorf("connect %s: %w", name, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("profile", name).Msg("failed to close data source")
		}
	}()

	return fn(ctx, db, profile)
}

func (e *Env) connector() job.Connector {
	if e.Connect != nil {
		return e.Connect
	}
	return sqlstore.Open
}
