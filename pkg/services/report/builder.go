package report

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/de-tools/report-atlas/pkg/frame"
	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/mailer"
	"github.com/de-tools/report-atlas/pkg/services/plot"
	"github.com/de-tools/report-atlas/pkg/store/files"
)

const DefaultHeaderSize = 2

// Builder accumulates the body and inline images of an HTML email. It is
// not safe for concurrent use. Once Send succeeds every mutating call
// returns ErrAlreadySent.
type Builder struct {
	elements map[string]any
	opener   files.Opener
	newID    func() string

	html  strings.Builder
	msg   *mail.Msg
	parts []string
	sent  bool
}

type Option func(*Builder)

// WithOpener sets how image paths are read.
func WithOpener(o files.Opener) Option {
	return func(b *Builder) { b.opener = o }
}

// WithIDGenerator replaces the Content-ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

// New starts a report over elements, a map from nickname to a table
// (dataframe.DataFrame), image bytes or an image path.
func New(elements map[string]any, opts ...Option) *Builder {
	b := &Builder{
		elements: elements,
		newID:    uuid.NewString,
		msg:      mail.NewMsg(),
	}
	if b.elements == nil {
		b.elements = map[string]any{}
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.opener == nil {
		b.opener = files.NewOpener(nil)
	}
	return b
}

type TableOptions struct {
	// Columns limits the rendered columns, applied after the join.
	Columns []string
	// JoinType defaults to outer.
	JoinType frame.JoinType
	// JoinOn names the key columns; empty joins on row position.
	JoinOn []string
	Styler frame.CellStyler
}

// AddTable renders the table(s) referenced by in as an HTML table.
func (b *Builder) AddTable(ctx context.Context, in Input, opts TableOptions) error {
	if b.sent {
		return ErrAlreadySent
	}
	how := opts.JoinType
	if how == "" {
		how = frame.JoinOuter
	}

	df, err := b.resolve(in, how, opts.JoinOn)
	if err != nil {
		return fmt.Errorf("add table %s: %w", in, err)
	}
	df, err = frame.Select(df, opts.Columns...)
	if err != nil {
		return fmt.Errorf("add table %s: %w", in, err)
	}

	htmlOpts := frame.DefaultHTMLOptions()
	htmlOpts.Styler = opts.Styler
	table, err := frame.ToHTML(df, htmlOpts)
	if err != nil {
		return fmt.Errorf("add table %s: %w", in, err)
	}

	b.html.WriteString(table)
	b.html.WriteString("\n")
	zerolog.Ctx(ctx).Debug().Stringer("input", in).Int("rows", df.Nrow()).Msg("table added to report")
	return nil
}

type PlotOptions struct {
	plot.Options
	// JoinType defaults to inner.
	JoinType frame.JoinType
	JoinOn   []string
}

// AddPlot draws column y against column x and embeds the picture inline.
func (b *Builder) AddPlot(ctx context.Context, in Input, x, y string, opts PlotOptions) error {
	if b.sent {
		return ErrAlreadySent
	}
	how := opts.JoinType
	if how == "" {
		how = frame.JoinInner
	}

	df, err := b.resolve(in, how, opts.JoinOn)
	if err != nil {
		return fmt.Errorf("add plot %s: %w", in, err)
	}
	img, err := plot.Render(df, x, y, opts.Options)
	if err != nil {
		return fmt.Errorf("add plot %s: %w", in, err)
	}
	if err := b.embed(img.Data); err != nil {
		return fmt.Errorf("add plot %s: %w", in, err)
	}

	zerolog.Ctx(ctx).Debug().Stringer("input", in).Str("x", x).Str("y", y).Msg("plot added to report")
	return nil
}

type textOptions struct {
	headerSize int
	raw        bool
}

type TextOption func(*textOptions)

// WithHeaderSize sets the heading level, 1 to 6.
func WithHeaderSize(n int) TextOption {
	return func(o *textOptions) { o.headerSize = n }
}

// WithRawHTML inserts header and body as markup instead of escaping them.
func WithRawHTML() TextOption {
	return func(o *textOptions) { o.raw = true }
}

// AddText appends a heading and a paragraph. An empty string leaves out
// the matching element. Both are HTML escaped unless WithRawHTML is given.
func (b *Builder) AddText(header, body string, opts ...TextOption) error {
	if b.sent {
		return ErrAlreadySent
	}
	o := textOptions{headerSize: DefaultHeaderSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.headerSize < 1 || o.headerSize > 6 {
		return fmt.Errorf("%w: header size %d", ErrInvalidInput, o.headerSize)
	}

	if !o.raw {
		header, body = html.EscapeString(header), html.EscapeString(body)
	}
	if header != "" {
		fmt.Fprintf(&b.html, "<h%d>%s</h%d>\n", o.headerSize, header, o.headerSize)
	}
	if body != "" {
		fmt.Fprintf(&b.html, "<p>%s</p>\n", body)
	}
	return nil
}

// ImageRef is an image given by nickname or path, or as raw bytes.
type ImageRef struct {
	ref  string
	data []byte
}

// Image refers to an element nickname, falling back to a file path.
func Image(ref string) ImageRef {
	return ImageRef{ref: ref}
}

func ImageBytes(data []byte) ImageRef {
	return ImageRef{data: data}
}

// AddImage embeds each image as its own inline part, in order. Nothing is
// added unless every image can be read.
func (b *Builder) AddImage(ctx context.Context, images ...ImageRef) error {
	if b.sent {
		return ErrAlreadySent
	}
	if len(images) == 0 {
		return fmt.Errorf("%w: no images", ErrInvalidInput)
	}

	loaded := make([][]byte, 0, len(images))
	for _, img := range images {
		data, err := b.imageData(ctx, img)
		if err != nil {
			return err
		}
		if _, err := imageExt(data); err != nil {
			return err
		}
		loaded = append(loaded, data)
	}

	for _, data := range loaded {
		if err := b.embed(data); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) imageData(ctx context.Context, img ImageRef) ([]byte, error) {
	if img.ref == "" {
		if len(img.data) == 0 {
			return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
		}
		return img.data, nil
	}

	path := img.ref
	if v, ok := b.elements[img.ref]; ok {
		switch t := v.(type) {
		case []byte:
			return t, nil
		case string:
			path = t
		default:
			return nil, fmt.Errorf("%w: element %q is a %T, not an image", ErrInvalidInput, img.ref, v)
		}
	}

	rc, err := b.opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open image at %s: %w", ErrImageNotFound, path, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("failed to close image")
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return data, nil
}

// embed attaches data as an inline part and references it from the body.
// The part name doubles as its Content-ID.
func (b *Builder) embed(data []byte) error {
	ext, err := imageExt(data)
	if err != nil {
		return err
	}
	cid := b.newID() + ext
	if err := b.msg.EmbedReader(cid, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("embed %s: %w", cid, err)
	}
	fmt.Fprintf(&b.html, "<p><img src=\"cid:%s\"></p>\n", html.EscapeString(cid))
	b.parts = append(b.parts, http.DetectContentType(data))
	return nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func imageExt(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	ext, ok := imageExtensions[ct]
	if !ok {
		return "", fmt.Errorf("%w: could not interpret %s as an image", ErrInvalidInput, ct)
	}
	return ext, nil
}

// HTML returns the full message body as it would be sent.
func (b *Builder) HTML() string {
	return "<html>\n<body>\n" + b.html.String() + "</body>\n</html>\n"
}

// String lists the content types of the message parts.
func (b *Builder) String() string {
	types := append([]string{"multipart/mixed"}, b.parts...)
	if b.sent {
		types = append(types, string(mail.TypeTextHTML))
	}
	return strings.Join(types, "\n")
}

func (b *Builder) Sent() bool {
	return b.sent
}

// Send sets the envelope, attaches the body and hands the message to s.
// A transport failure leaves the report unsent.
func (b *Builder) Send(ctx context.Context, s mailer.Sender, env domain.Envelope) error {
	if b.sent {
		return ErrAlreadySent
	}
	if len(env.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrInvalidInput)
	}

	b.msg.Subject(env.Subject)
	if err := b.msg.From(env.From); err != nil {
		return fmt.Errorf("%w: sender %q: %w", ErrInvalidInput, env.From, err)
	}
	if err := b.msg.To(env.To...); err != nil {
		return fmt.Errorf("%w: recipients: %w", ErrInvalidInput, err)
	}
	b.msg.SetBodyString(mail.TypeTextHTML, b.HTML())

	if err := s.Send(ctx, b.msg); err != nil {
		return fmt.Errorf("send report %q: %w", env.Subject, err)
	}
	b.sent = true

	zerolog.Ctx(ctx).Info().
		Str("subject", env.Subject).
		Int("recipients", len(env.To)).
		Int("images", len(b.parts)).
		Msg("report sent")
	return nil
}

// Message exposes the underlying message, mainly for inspection in tests
// and previews.
func (b *Builder) Message() *mail.Msg {
	return b.msg
}
