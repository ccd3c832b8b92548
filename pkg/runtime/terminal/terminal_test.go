package terminal

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"github.com/xuri/excelize/v2"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/mailer"
)

type fixture struct {
	dir      string
	ships    string
	profiles string
	job      string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		ships:    filepath.Join(dir, "ships.csv"),
		profiles: filepath.Join(dir, ".reportatlascfg"),
		job:      filepath.Join(dir, "fleet.yaml"),
	}
	require.NoError(t, os.WriteFile(f.ships, []byte("Month,Count\nJan,3\nFeb,5\n"), 0o644))
	require.NoError(t, os.WriteFile(f.profiles, []byte("[catalog]\ndriver = sqlite\ndsn = file:catalog\n"), 0o644))
	require.NoError(t, os.WriteFile(f.job, []byte(`name: fleet
elements:
  - name: ships
    kind: csv
    path: `+f.ships+`
blocks:
  - type: text
    header: Fleet
  - type: table
    tables: [ships]
email:
  subject: Fleet weekly
  from: reports@example.com
  to: [crew@example.com]
`), 0o644))
	return f
}

func run(t *testing.T, opts Options, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Output = &out
	opts.Args = args
	ctx := zerolog.Nop().WithContext(context.Background())
	err := NewCLI(opts).ExecuteContext(ctx)
	return out.String(), err
}

func TestFetchCSV(t *testing.T) {
	f := setup(t)

	out, err := run(t, Options{}, "fetch", "csv", f.ships)

	require.NoError(t, err)
	assert.Contains(t, out, "=== "+f.ships+" (2 rows) ===")
	assert.Contains(t, out, "| Month | Count |")
	assert.Contains(t, out, "| Feb   | 5     |")
}

func TestFetchCSV_Named(t *testing.T) {
	f := setup(t)

	out, err := run(t, Options{}, "fetch", "csv", "--name", "ships="+f.ships)

	require.NoError(t, err)
	assert.Contains(t, out, "=== ships (2 rows) ===")

	_, err = run(t, Options{}, "fetch", "csv", "--name", "ships="+f.ships, f.ships)
	assert.Error(t, err)
}

func TestFetchCSV_NoArguments(t *testing.T) {
	_, err := run(t, Options{}, "fetch", "csv")
	assert.Error(t, err)
}

func TestFetchExcel_NamedSheet(t *testing.T) {
	f := setup(t)
	path := filepath.Join(f.dir, "fleet.xlsx")
	wb := excelize.NewFile()
	_, err := wb.NewSheet("Crew")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("Crew", "A1", &[]any{"Name", "Rank"}))
	require.NoError(t, wb.SetSheetRow("Crew", "A2", &[]any{"Flint", "Captain"}))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	out, err := run(t, Options{}, "fetch", "excel", "--name", "crew="+path+"#Crew")

	require.NoError(t, err)
	assert.Contains(t, out, "=== crew (1 rows) ===")
	assert.Contains(t, out, "| Flint | Captain |")
}

func TestTools(t *testing.T) {
	f := setup(t)
	connector := func(ctx context.Context, profile domain.DataSourceProfile) (*sql.DB, error) {
		db, m, err := sqlmock.New()
		require.NoError(t, err)
		m.ExpectQuery("LIKE").WithArgs("AUR%").
			WillReturnRows(sqlmock.NewRows([]string{"entity"}).AddRow("AUR").AddRow("AUR101"))
		m.ExpectQuery("SELECT e.state").WithArgs("AUR101").
			WillReturnRows(sqlmock.NewRows([]string{"state", "cu_flag", "pb_flag", "au_flag"}).AddRow("Up", "Y", "N", "N"))
		m.ExpectQuery("LIKE").WithArgs("AUR101%").
			WillReturnRows(sqlmock.NewRows([]string{"entity"}).AddRow("AUR101"))
		m.ExpectClose()
		return db, nil
	}

	out, err := run(t, Options{Connector: connector}, "--profiles", f.profiles, "tools", "AUR", "--profile", "catalog", "--state")

	require.NoError(t, err)
	assert.Contains(t, out, "AUR\n--> AUR101\n")
	assert.Contains(t, out, "- AUR101: Up [Cu]")
}

func TestTools_UnknownProfile(t *testing.T) {
	f := setup(t)

	_, err := run(t, Options{}, "--profiles", f.profiles, "tools", "AUR", "--profile", "nope")

	assert.ErrorContains(t, err, "profile nope not found")
}

func TestSend(t *testing.T) {
	f := setup(t)
	var sent *mail.Msg
	sender := mailer.SenderFunc(func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	})
	missingProfiles := filepath.Join(f.dir, "none.cfg")

	out, err := run(t, Options{Sender: sender}, "--profiles", missingProfiles, "send", "--job", f.job)

	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Contains(t, out, "fleet: sent")
	assert.Contains(t, out, "To: crew@example.com")
	assert.Contains(t, out, "text/html")
}

func TestSend_DryRun(t *testing.T) {
	f := setup(t)
	sender := mailer.SenderFunc(func(context.Context, *mail.Msg) error {
		t.Fatal("dry run must not send")
		return nil
	})

	out, err := run(t, Options{Sender: sender}, "--profiles", f.profiles, "send", "--job", f.job, "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "fleet: built, not sent")
}

func TestPreview(t *testing.T) {
	f := setup(t)
	outFile := filepath.Join(f.dir, "fleet.html")

	out, err := run(t, Options{}, "--profiles", f.profiles, "preview", "--job", f.job, "--out", outFile)

	require.NoError(t, err)
	assert.Contains(t, out, "written to "+outFile)
	html, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h2>Fleet</h2>")
	assert.Contains(t, string(html), "<td>Jan</td>")

	out, err = run(t, Options{}, "--profiles", f.profiles, "preview", "--job", f.job)
	require.NoError(t, err)
	assert.Contains(t, out, "<th>Month</th>")
}
