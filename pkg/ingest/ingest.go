package ingest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"

	"github.com/de-tools/report-atlas/pkg/store/files"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

// Reader turns one reference (a path or a query) into a frame.
type Reader interface {
	Format() string
	Read(ctx context.Context, ref string) (dataframe.DataFrame, error)
}

// Result holds what a load produced. Shape tells which field is set.
type Result struct {
	Shape  Shape
	Single dataframe.DataFrame
	List   []dataframe.DataFrame
	Named  map[string]dataframe.DataFrame
}

// Frames returns every loaded frame; named frames come in key order.
func (r Result) Frames() []dataframe.DataFrame {
	switch r.Shape {
	case ShapeSingle:
		return []dataframe.DataFrame{r.Single}
	case ShapeList:
		return r.List
	default:
		out := make([]dataframe.DataFrame, 0, len(r.Named))
		for _, k := range r.Keys() {
			out = append(out, r.Named[k])
		}
		return out
	}
}

// Keys returns the names of a named result in sorted order.
func (r Result) Keys() []string {
	return slices.Sorted(maps.Keys(r.Named))
}

// Load reads every reference in args with r. The first failing read aborts
// the whole call.
func Load(ctx context.Context, r Reader, args ...any) (Result, error) {
	req, err := normalize(r.Format(), args)
	if err != nil {
		return Result{}, err
	}

	logger := zerolog.Ctx(ctx)
	frames := make([]dataframe.DataFrame, len(req.refs))
	for i, ref := range req.refs {
		started := time.Now()
		df, err := r.Read(ctx, ref)
		if err != nil {
			return Result{}, fmt.Errorf("%s %s: %w", r.Format(), describe(r, ref), err)
		}
		logger.Debug().
			Str("format", r.Format()).
			Str("source", describe(r, ref)).
			Int("rows", df.Nrow()).
			Int("cols", df.Ncol()).
			Dur("took", time.Since(started)).
			Msg("loaded table")
		frames[i] = df
	}

	switch req.shape {
	case ShapeSingle:
		return Result{Shape: ShapeSingle, Single: frames[0]}, nil
	case ShapeList:
		return Result{Shape: ShapeList, List: frames}, nil
	default:
		named := make(map[string]dataframe.DataFrame, len(frames))
		for i, k := range req.keys {
			named[k] = frames[i]
		}
		return Result{Shape: ShapeNamed, Named: named}, nil
	}
}

// describe keeps query text out of error messages and logs.
func describe(r Reader, ref string) string {
	if r.Format() != FormatSQL {
		return ref
	}
	const maxLen = 60
	if len(ref) > maxLen {
		return fmt.Sprintf("%q...", ref[:maxLen])
	}
	return fmt.Sprintf("%q", ref)
}

// CSV loads comma separated files. See Load for the accepted arguments.
func CSV(ctx context.Context, opener files.Opener, args ...any) (Result, error) {
	return Load(ctx, NewCSVReader(opener, DefaultCSVOptions()), args...)
}

// Excel loads workbooks; a "#Sheet" suffix selects a sheet other than the first.
func Excel(ctx context.Context, opener files.Opener, args ...any) (Result, error) {
	return Load(ctx, NewExcelReader(opener), args...)
}

// SQL runs each query against q.
func SQL(ctx context.Context, q sqlstore.Querier, args ...any) (Result, error) {
	return Load(ctx, NewSQLReader(q), args...)
}
