package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

var ErrNotATool = errors.New("not a tool")

// Schema names the catalog table and columns the lookups run against.
type Schema struct {
	Table         string
	EntityColumn  string
	DeletedColumn string
	StateColumn   string
	CuColumn      string
	PbColumn      string
	AuColumn      string
}

func DefaultSchema() Schema {
	return Schema{
		Table:         "F_ENTITY",
		EntityColumn:  "entity",
		DeletedColumn: "entity_deleted_flag",
		StateColumn:   "state",
		CuColumn:      "cu_flag",
		PbColumn:      "pb_flag",
		AuColumn:      "au_flag",
	}
}

type options struct {
	schema      Schema
	placeholder domain.PlaceholderStyle
}

type Option func(*options)

func WithSchema(s Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithPlaceholder sets the bind parameter style of the data source.
func WithPlaceholder(p domain.PlaceholderStyle) Option {
	return func(o *options) { o.placeholder = p }
}

// Tool is a named catalog entity. A toolset (isTool false) groups the tools
// whose names start with its name. Every call runs a fresh query.
type Tool struct {
	q      sqlstore.Querier
	name   string
	isTool bool
	opts   options
}

func NewTool(q sqlstore.Querier, name string, isTool bool, opts ...Option) *Tool {
	o := options{schema: DefaultSchema(), placeholder: domain.PlaceholderQuestion}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tool{q: q, name: name, isTool: isTool, opts: o}
}

func (t *Tool) Name() string { return t.name }

func (t *Tool) IsTool() bool { return t.isTool }

// Children looks up every live entity whose name starts with the tool's
// name. It returns nil unless more than one entity matches; otherwise one
// child per match other than the tool itself, sorted by name.
func (t *Tool) Children(ctx context.Context) ([]*Tool, error) {
	s := t.opts.schema
	query := fmt.Sprintf(
		"SELECT e.%[2]s AS entity FROM %[1]s e WHERE e.%[3]s = 'N' AND e.%[2]s LIKE ? ESCAPE '!'",
		s.Table, s.EntityColumn, s.DeletedColumn)

	rows, err := t.q.QueryContext(ctx, t.bind(query), escapeLike(t.name)+"%")
	if err != nil {
		return nil, fmt.Errorf("lookup children of %s: %w", t.name, err)
	}
	defer sqlstore.CloseRows(ctx, rows)

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan child of %s: %w", t.name, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup children of %s: %w", t.name, err)
	}

	zerolog.Ctx(ctx).Debug().Str("tool", t.name).Int("matches", len(names)).Msg("catalog lookup")

	if len(names) <= 1 {
		return nil, nil
	}

	slices.Sort(names)
	names = slices.Compact(names)
	children := make([]*Tool, 0, len(names))
	for _, name := range names {
		if name == t.name {
			continue
		}
		children = append(children, &Tool{q: t.q, name: name, isTool: true, opts: t.opts})
	}
	return children, nil
}

// Status reads the status row of the tool.
func (t *Tool) Status(ctx context.Context) (domain.ToolStatus, error) {
	if !t.isTool {
		return domain.ToolStatus{}, fmt.Errorf("%w: %s is a toolset", ErrNotATool, t.name)
	}

	s := t.opts.schema
	query := fmt.Sprintf(
		"SELECT e.%[3]s, e.%[4]s, e.%[5]s, e.%[6]s FROM %[1]s e WHERE e.%[2]s = ?",
		s.Table, s.EntityColumn, s.StateColumn, s.CuColumn, s.PbColumn, s.AuColumn)

	var state, cu, pb, au sql.NullString
	err := t.q.QueryRowContext(ctx, t.bind(query), t.name).Scan(&state, &cu, &pb, &au)
	if err != nil {
		return domain.ToolStatus{}, fmt.Errorf("status of %s: %w", t.name, err)
	}

	zerolog.Ctx(ctx).Debug().Str("tool", t.name).Str("state", state.String).Msg("catalog status lookup")

	return domain.ToolStatus{
		Name:  t.name,
		State: state.String,
		Cu:    flag(cu),
		Pb:    flag(pb),
		Au:    flag(au),
	}, nil
}

func (t *Tool) State(ctx context.Context) (string, error) {
	st, err := t.Status(ctx)
	return st.State, err
}

func (t *Tool) IsCu(ctx context.Context) (bool, error) {
	st, err := t.Status(ctx)
	return st.Cu, err
}

func (t *Tool) IsPb(ctx context.Context) (bool, error) {
	st, err := t.Status(ctx)
	return st.Pb, err
}

func (t *Tool) IsAu(ctx context.Context) (bool, error) {
	st, err := t.Status(ctx)
	return st.Au, err
}

func (t *Tool) bind(query string) string {
	return sqlstore.Rebind(t.opts.placeholder, query)
}

// escapeLike makes name match literally inside a LIKE pattern using '!'
// as the escape character.
func escapeLike(name string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(name)
}

func flag(v sql.NullString) bool {
	if !v.Valid {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(v.String)) {
	case "Y", "YES":
		return true
	case "N", "NO", "":
		return false
	}
	b, err := strconv.ParseBool(v.String)
	return err == nil && b
}
