package plot

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	gonum "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type Kind string

const (
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindBar     Kind = "bar"
)

// Options control how a table is drawn. Empty labels fall back to the
// column names; zero sizes fall back to the defaults.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Kind   Kind
	// Format is any gonum/plot output format: jpg, png, svg, pdf.
	Format string
	// Width and Height are in inches.
	Width  float64
	Height float64
	// XRotation rotates the x tick labels, in degrees.
	XRotation float64
}

func DefaultOptions() Options {
	return Options{
		Kind:   KindLine,
		Format: "jpg",
		Width:  6.4,
		Height: 4.8,
	}
}

// Image is a rendered plot.
type Image struct {
	Data   []byte
	Format string
}

// Render draws column y against column x of df.
func Render(df dataframe.DataFrame, x, y string, opts Options) (Image, error) {
	opts = withDefaults(opts)

	xs, err := column(df, x)
	if err != nil {
		return Image{}, err
	}
	ys, err := column(df, y)
	if err != nil {
		return Image{}, err
	}
	if !numeric(ys) {
		return Image{}, fmt.Errorf("column %q is not numeric", y)
	}

	p := gonum.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = pick(opts.XLabel, x)
	p.Y.Label.Text = pick(opts.YLabel, y)
	p.X.Tick.Label.Rotation = opts.XRotation * math.Pi / 180
	p.Add(plotter.NewGrid())

	values := ys.Float()
	if err := draw(p, opts.Kind, xs, values, y); err != nil {
		return Image{}, err
	}

	w, err := p.WriterTo(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, opts.Format)
	if err != nil {
		return Image{}, fmt.Errorf("encode plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return Image{}, fmt.Errorf("encode plot: %w", err)
	}
	return Image{Data: buf.Bytes(), Format: opts.Format}, nil
}

func draw(p *gonum.Plot, kind Kind, xs series.Series, ys []float64, legend string) error {
	labels := xs.Records()

	if kind == KindBar {
		heights := make(plotter.Values, len(ys))
		for i, v := range ys {
			if !math.IsNaN(v) {
				heights[i] = v
			}
		}
		bars, err := plotter.NewBarChart(heights, vg.Points(20))
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		p.Add(bars)
		p.NominalX(labels...)
		return nil
	}

	// missing values leave a gap rather than failing the plot
	nominal := !numeric(xs)
	xv := xs.Float()
	pts := make(plotter.XYs, 0, len(ys))
	for i, yv := range ys {
		px := float64(i)
		if !nominal {
			px = xv[i]
		}
		if math.IsNaN(px) || math.IsNaN(yv) {
			continue
		}
		pts = append(pts, plotter.XY{X: px, Y: yv})
	}

	switch kind {
	case KindScatter:
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("scatter plot: %w", err)
		}
		p.Add(s)
		p.Legend.Add(legend, s)
	case KindLine:
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("line plot: %w", err)
		}
		p.Add(l)
		p.Legend.Add(legend, l)
	default:
		return fmt.Errorf("unsupported plot kind %q", kind)
	}

	if nominal {
		p.NominalX(labels...)
	}
	return nil
}

func column(df dataframe.DataFrame, name string) (series.Series, error) {
	if !slices.Contains(df.Names(), name) {
		return series.Series{}, fmt.Errorf("column %q not found (have %v)", name, df.Names())
	}
	return df.Col(name), nil
}

func numeric(s series.Series) bool {
	return s.Type() == series.Int || s.Type() == series.Float
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func withDefaults(opts Options) Options {
	d := DefaultOptions()
	if opts.Kind == "" {
		opts.Kind = d.Kind
	}
	if opts.Format == "" {
		opts.Format = d.Format
	}
	if opts.Width <= 0 {
		opts.Width = d.Width
	}
	if opts.Height <= 0 {
		opts.Height = d.Height
	}
	return opts
}
