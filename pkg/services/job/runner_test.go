package job

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/de-tools/report-atlas/pkg/ingest"
	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/mailer"
	"github.com/de-tools/report-atlas/pkg/services/report"
)

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) GetProfiles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRegistry) GetProfile(ctx context.Context, profile string) (domain.DataSourceProfile, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(domain.DataSourceProfile), args.Error(1)
}

type fixture struct {
	dir      string
	ships    string
	logo     string
	registry *MockRegistry
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	ships := filepath.Join(dir, "ships.csv")
	require.NoError(t, os.WriteFile(ships, []byte("ship_id,Month,Count\n1,Jan,3\n2,Feb,5\n3,Mar,4\n"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	logo := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(logo, buf.Bytes(), 0o644))

	return &fixture{dir: dir, ships: ships, logo: logo, registry: new(MockRegistry)}
}

func (f *fixture) job() *domain.ReportJob {
	return &domain.ReportJob{
		Name: "weekly",
		Elements: []domain.Element{
			{Name: "ships", Kind: domain.ElementCSV, Path: f.ships},
			{Name: "crew", Kind: domain.ElementSQL, Profile: "warehouse", Query: "SELECT ship_id, captain FROM crew"},
			{Name: "logo", Kind: domain.ElementImage, Path: f.logo},
		},
		Blocks: []domain.Block{
			{Type: domain.BlockText, Header: "Fleet", Body: "Weekly numbers", HeaderSize: 3},
			{Type: domain.BlockTable, Tables: []string{"ships", "crew"}, JoinType: "inner", JoinOn: []string{"ship_id"}, Columns: []string{"Month", "captain"}},
			{Type: domain.BlockPlot, Tables: []string{"ships"}, X: "Month", Y: "Count", Kind: "bar", Title: "Ships"},
			{Type: domain.BlockImage, Images: []string{"logo"}},
		},
		Email: domain.Envelope{Subject: "Fleet weekly", From: "reports@example.com", To: []string{"crew@example.com"}},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("part-%d", n)
	}
}

func crewConnector(t *testing.T, deadline *time.Time) Connector {
	return func(ctx context.Context, profile domain.DataSourceProfile) (*sql.DB, error) {
		db, m, err := sqlmock.New()
		require.NoError(t, err)
		m.ExpectQuery("SELECT ship_id, captain FROM crew").
			WillReturnRows(sqlmock.NewRows([]string{"ship_id", "captain"}).
				AddRow(int64(1), "Flint").
				AddRow(int64(3), "Silver"))
		m.ExpectClose()
		if d, ok := ctx.Deadline(); ok && deadline != nil {
			*deadline = d
		}
		return db, nil
	}
}

func TestRunner_Build(t *testing.T) {
	// Given
	f := setup(t)
	f.registry.On("GetProfile", mock.Anything, "warehouse").
		Return(domain.DataSourceProfile{Name: "warehouse", Driver: "sqlite", Timeout: time.Minute}, nil)

	var deadline time.Time
	runner := NewRunner(f.registry,
		WithConnector(crewConnector(t, &deadline)),
		WithReportOptions(report.WithIDGenerator(sequentialIDs())),
	)

	// When
	started := time.Now()
	b, err := runner.Build(context.Background(), f.job())

	// Then
	require.NoError(t, err)
	out := b.HTML()
	assert.Contains(t, out, "<h3>Fleet</h3>")
	assert.Contains(t, out, "<td>Flint</td>")
	assert.Contains(t, out, "<td>Silver</td>")
	assert.NotContains(t, out, "<th>Count</th>")
	assert.Contains(t, out, `cid:part-1.jpg`)
	assert.Contains(t, out, `cid:part-2.png`)
	assert.WithinDuration(t, started.Add(time.Minute), deadline, 5*time.Second)
	f.registry.AssertExpectations(t)
}

func TestRunner_Run(t *testing.T) {
	f := setup(t)
	f.registry.On("GetProfile", mock.Anything, "warehouse").
		Return(domain.DataSourceProfile{Name: "warehouse", Driver: "sqlite"}, nil)

	var sent *mail.Msg
	runner := NewRunner(f.registry,
		WithConnector(crewConnector(t, nil)),
		WithSender(mailer.SenderFunc(func(_ context.Context, msg *mail.Msg) error {
			sent = msg
			return nil
		})),
	)

	b, err := runner.Run(context.Background(), f.job())

	require.NoError(t, err)
	assert.True(t, b.Sent())
	require.NotNil(t, sent)
	assert.Equal(t, []string{"Fleet weekly"}, sent.GetGenHeader(mail.HeaderSubject))
}

func TestRunner_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file aborts the job", func(t *testing.T) {
		f := setup(t)
		job := f.job()
		job.Elements[0].Path = filepath.Join(f.dir, "missing.csv")

		_, err := NewRunner(f.registry).Build(ctx, job)

		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("unknown profile", func(t *testing.T) {
		f := setup(t)
		f.registry.On("GetProfile", mock.Anything, "warehouse").
			Return(domain.DataSourceProfile{}, errors.New("profile warehouse not found"))

		_, err := NewRunner(f.registry).Build(ctx, f.job())

		assert.ErrorContains(t, err, "profile warehouse not found")
	})

	t.Run("no registry", func(t *testing.T) {
		f := setup(t)

		_, err := NewRunner(nil).Build(ctx, f.job())

		assert.ErrorContains(t, err, "no data source profiles")
	})

	t.Run("connection failure", func(t *testing.T) {
		f := setup(t)
		f.registry.On("GetProfile", mock.Anything, "warehouse").
			Return(domain.DataSourceProfile{Name: "warehouse", Driver: "sqlite"}, nil)
		boom := errors.New("dial tcp: connection refused")

		_, err := NewRunner(f.registry, WithConnector(func(context.Context, domain.DataSourceProfile) (*sql.DB, error) {
			return nil, boom
		})).Build(ctx, f.job())

		assert.ErrorIs(t, err, boom)
	})

	t.Run("bad join type", func(t *testing.T) {
		f := setup(t)
		job := &domain.ReportJob{
			Elements: []domain.Element{{Name: "ships", Kind: domain.ElementCSV, Path: f.ships}},
			Blocks:   []domain.Block{{Type: domain.BlockTable, Tables: []string{"ships"}, JoinType: "sideways"}},
		}

		_, err := NewRunner(nil).Build(ctx, job)

		assert.ErrorContains(t, err, "block 0 (table)")
	})

	t.Run("transport failure", func(t *testing.T) {
		f := setup(t)
		job := &domain.ReportJob{
			Blocks: []domain.Block{{Type: domain.BlockText, Body: "hi"}},
			Email:  domain.Envelope{Subject: "s", From: "reports@example.com", To: []string{"a@example.com"}},
		}
		boom := errors.New("421 service not available")

		b, err := NewRunner(f.registry, WithSender(mailer.SenderFunc(func(context.Context, *mail.Msg) error {
			return boom
		}))).Run(ctx, job)

		assert.ErrorIs(t, err, boom)
		require.NotNil(t, b)
		assert.False(t, b.Sent())
	})
}

func TestPreviewer(t *testing.T) {
	f := setup(t)
	jobs := t.TempDir()
	content := fmt.Sprintf(`elements:
  - name: ships
    kind: csv
    path: %s
blocks:
  - type: text
    header: Preview
  - type: table
    tables: [ships]
email:
  subject: s
  from: reports@example.com
  to: [a@example.com]
`, f.ships)
	require.NoError(t, os.WriteFile(filepath.Join(jobs, "fleet.yaml"), []byte(content), 0o644))

	p := NewPreviewer(jobs, NewRunner(nil))
	ctx := context.Background()

	out, err := p.Preview(ctx, "fleet")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Preview</h2>")
	assert.Contains(t, out, "<th>Month</th>")

	for _, name := range []string{"missing", "", "../fleet", ".hidden"} {
		_, err := p.Preview(ctx, name)
		assert.ErrorIs(t, err, ErrJobNotFound, name)
	}
}

type stubReader struct {
	format string
	refs   []string
}

func (s *stubReader) Format() string { return s.format }

func (s *stubReader) Read(_ context.Context, ref string) (dataframe.DataFrame, error) {
	s.refs = append(s.refs, ref)
	return dataframe.LoadRecords([][]string{{"Month", "Count"}, {"Apr", "7"}}), nil
}

func TestRunner_FileFormatsComeFromRegistry(t *testing.T) {
	// Given
	reader := &stubReader{format: ingest.FormatCSV}
	formats, err := ingest.NewRegistry(map[string]ingest.ReaderFactory{
		ingest.FormatCSV: func() (ingest.Reader, error) { return reader, nil },
	})
	require.NoError(t, err)
	runner := NewRunner(nil, WithFormats(formats))

	job := &domain.ReportJob{
		Name:     "monthly",
		Elements: []domain.Element{{Name: "ships", Kind: domain.ElementCSV, Path: "s3://fleet/ships.csv"}},
		Blocks: []domain.Block{
			{Type: domain.BlockText, Body: "<b>April</b> numbers", RawHTML: true},
			{Type: domain.BlockTable, Tables: []string{"ships"}},
		},
	}

	// When
	b, err := runner.Build(context.Background(), job)

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://fleet/ships.csv"}, reader.refs)
	assert.Contains(t, b.HTML(), "<p><b>April</b> numbers</p>")
	assert.Contains(t, b.HTML(), "<td>Apr</td>")

	// An element kind without a registered reader fails the build.
	job.Elements = append(job.Elements, domain.Element{Name: "lots", Kind: domain.ElementExcel, Path: "lots.xlsx"})
	_, err = runner.Build(context.Background(), job)
	assert.ErrorContains(t, err, `format "excel" is not registered`)
}
