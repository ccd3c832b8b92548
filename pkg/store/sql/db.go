package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"
)

// Querier executes caller supplied query text. *sql.DB, *sql.Conn and *sql.Tx
// all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the data source described by profile and runs its init
// statements. The caller owns the returned handle.
func Open(ctx context.Context, profile domain.DataSourceProfile) (*sql.DB, error) {
	if !slices.Contains(sql.Drivers(), profile.Driver) {
		return nil, fmt.Errorf("profile %s: driver %q is not registered (available: %s)",
			profile.Name, profile.Driver, strings.Join(sql.Drivers(), ", "))
	}

	if profile.Driver == "duckdb" {
		return openDuckDB(ctx, profile)
	}

	db, err := sql.Open(profile.Driver, profile.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", profile, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", profile, err)
	}

	for _, stmt := range profile.InitSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init %s: %w", profile, err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("profile", profile.Name).Str("driver", profile.Driver).Msg("data source connected")
	return db, nil
}

// openDuckDB runs the init statements on every new connection, since an
// in-memory duckdb database lives only as long as the connection that made it.
func openDuckDB(ctx context.Context, profile domain.DataSourceProfile) (*sql.DB, error) {
	c, err := duckdb.NewConnector(profile.DSN, func(exec driver.ExecerContext) error {
		for _, stmt := range profile.InitSQL {
			if _, err := exec.ExecContext(ctx, stmt, nil); err != nil {
				return fmt.Errorf("init %s: %w", profile, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", profile, err)
	}

	db := sql.OpenDB(c)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", profile, err)
	}

	zerolog.Ctx(ctx).Debug().Str("profile", profile.Name).Str("driver", profile.Driver).Msg("data source connected")
	return db, nil
}

// Rebind rewrites '?' placeholders into the given style. Question marks
// inside single-quoted literals are left alone.
func Rebind(style domain.PlaceholderStyle, query string) string {
	if style == "" || style == domain.PlaceholderQuestion {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == '?' && !quoted:
			n++
			b.WriteString(string(style))
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CloseRows closes rows and logs a failure instead of returning it.
func CloseRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close query rows")
	}
}
