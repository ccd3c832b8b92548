package job

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/report-atlas/pkg/frame"
	"github.com/de-tools/report-atlas/pkg/ingest"
	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/config"
	"github.com/de-tools/report-atlas/pkg/services/mailer"
	"github.com/de-tools/report-atlas/pkg/services/plot"
	"github.com/de-tools/report-atlas/pkg/services/report"
	"github.com/de-tools/report-atlas/pkg/store/files"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

// Connector opens a data source for the duration of one load.
type Connector func(ctx context.Context, profile domain.DataSourceProfile) (*sql.DB, error)

// Runner turns a declarative report job into a report and sends it.
type Runner struct {
	profiles   config.Registry
	opener     files.Opener
	formats    ingest.Registry
	connect    Connector
	sender     mailer.Sender
	reportOpts []report.Option
}

type Option func(*Runner)

func WithOpener(o files.Opener) Option {
	return func(r *Runner) { r.opener = o }
}

// WithFormats replaces the readers used for file elements.
func WithFormats(reg ingest.Registry) Option {
	return func(r *Runner) { r.formats = reg }
}

func WithConnector(c Connector) Option {
	return func(r *Runner) { r.connect = c }
}

// WithSender replaces the SMTP transport built from the job's settings.
func WithSender(s mailer.Sender) Option {
	return func(r *Runner) { r.sender = s }
}

func WithReportOptions(opts ...report.Option) Option {
	return func(r *Runner) { r.reportOpts = append(r.reportOpts, opts...) }
}

// NewRunner builds a runner. profiles may be nil when no job reads from SQL.
func NewRunner(profiles config.Registry, opts ...Option) *Runner {
	r := &Runner{
		profiles: profiles,
		connect:  sqlstore.Open,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.opener == nil {
		r.opener = files.NewOpener(nil)
	}
	if r.formats == nil {
		r.formats = ingest.NewFileRegistry(r.opener)
	}
	r.reportOpts = append([]report.Option{report.WithOpener(r.opener)}, r.reportOpts...)
	return r
}

// Build loads every element of job and applies its blocks in order.
func (r *Runner) Build(ctx context.Context, job *domain.ReportJob) (*report.Builder, error) {
	logger := zerolog.Ctx(ctx).With().Str("job", job.Name).Logger()
	ctx = logger.WithContext(ctx)

	elements, err := r.load(ctx, job.Elements)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	b := report.New(elements, r.reportOpts...)
	for i, block := range job.Blocks {
		if err := apply(ctx, b, block); err != nil {
			return nil, fmt.Errorf("job %s: block %d (%s): %w", job.Name, i, block.Type, err)
		}
	}

	logger.Info().Int("elements", len(elements)).Int("blocks", len(job.Blocks)).Msg("report built")
	return b, nil
}

// Run builds the report and sends it to the job's recipients.
func (r *Runner) Run(ctx context.Context, job *domain.ReportJob) (*report.Builder, error) {
	b, err := r.Build(ctx, job)
	if err != nil {
		return nil, err
	}

	sender := r.sender
	if sender == nil {
		sender = mailer.NewSMTP(job.SMTP)
	}
	if err := b.Send(ctx, sender, job.Email); err != nil {
		return b, fmt.Errorf("job %s: %w", job.Name, err)
	}
	return b, nil
}

func (r *Runner) load(ctx context.Context, defs []domain.Element) (map[string]any, error) {
	elements := make(map[string]any, len(defs))
	paths := map[string]map[string]string{}
	queries := map[string]map[string]string{}

	for _, el := range defs {
		switch el.Kind {
		case domain.ElementImage:
			elements[el.Name] = el.Path
		case domain.ElementSQL:
			if queries[el.Profile] == nil {
				queries[el.Profile] = map[string]string{}
			}
			queries[el.Profile][el.Name] = el.Query
		default:
			format := string(el.Kind)
			if paths[format] == nil {
				paths[format] = map[string]string{}
			}
			paths[format][el.Name] = el.Path
		}
	}

	for _, format := range slices.Sorted(maps.Keys(paths)) {
		reader, err := r.formats.Create(format)
		if err != nil {
			return nil, fmt.Errorf("elements %v: %w", slices.Sorted(maps.Keys(paths[format])), err)
		}
		res, err := ingest.Load(ctx, reader, paths[format])
		if err != nil {
			return nil, err
		}
		addFrames(elements, res)
	}
	for _, name := range slices.Sorted(maps.Keys(queries)) {
		res, err := r.query(ctx, name, queries[name])
		if err != nil {
			return nil, err
		}
		addFrames(elements, res)
	}
	return elements, nil
}

// query runs one profile's queries over a single connection that is
// closed before returning.
func (r *Runner) query(ctx context.Context, profileName string, queries map[string]string) (ingest.Result, error) {
	if r.profiles == nil {
		return ingest.Result{}, fmt.Errorf("profile %s: no data source profiles configured", profileName)
	}
	profile, err := r.profiles.GetProfile(ctx, profileName)
	if err != nil {
		return ingest.Result{}, err
	}

	timeout := profile.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := r.connect(ctx, profile)
	if err != nil {
		return ingest.Result{}, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("profile", profileName).Msg("failed to close data source")
		}
	}()

	started := time.Now()
	res, err := ingest.SQL(ctx, db, queries)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("profile %s: %w", profileName, err)
	}
	zerolog.Ctx(ctx).Debug().Str("profile", profileName).Int("queries", len(queries)).Dur("took", time.Since(started)).Msg("queries finished")
	return res, nil
}

func addFrames(elements map[string]any, res ingest.Result) {
	for k, df := range res.Named {
		elements[k] = df
	}
}

func apply(ctx context.Context, b *report.Builder, block domain.Block) error {
	switch block.Type {
	case domain.BlockText:
		var opts []report.TextOption
		if block.HeaderSize > 0 {
			opts = append(opts, report.WithHeaderSize(block.HeaderSize))
		}
		if block.RawHTML {
			opts = append(opts, report.WithRawHTML())
		}
		return b.AddText(block.Header, block.Body, opts...)

	case domain.BlockTable:
		how, err := joinType(block.JoinType)
		if err != nil {
			return err
		}
		return b.AddTable(ctx, input(block.Tables), report.TableOptions{
			Columns:  block.Columns,
			JoinType: how,
			JoinOn:   block.JoinOn,
		})

	case domain.BlockPlot:
		how, err := joinType(block.JoinType)
		if err != nil {
			return err
		}
		return b.AddPlot(ctx, input(block.Tables), block.X, block.Y, report.PlotOptions{
			Options: plot.Options{
				Title:     block.Title,
				XLabel:    block.XLabel,
				YLabel:    block.YLabel,
				Kind:      plot.Kind(block.Kind),
				XRotation: block.XRotation,
			},
			JoinType: how,
			JoinOn:   block.JoinOn,
		})

	case domain.BlockImage:
		refs := make([]report.ImageRef, 0, len(block.Images))
		for _, img := range block.Images {
			refs = append(refs, report.Image(img))
		}
		return b.AddImage(ctx, refs...)

	default:
		return fmt.Errorf("unknown block type %q", block.Type)
	}
}

func input(tables []string) report.Input {
	if len(tables) == 1 {
		return report.Name(tables[0])
	}
	return report.Names(tables...)
}

// joinType leaves an empty value alone so each block keeps its own default.
func joinType(s string) (frame.JoinType, error) {
	if s == "" {
		return "", nil
	}
	return frame.ParseJoinType(s)
}
