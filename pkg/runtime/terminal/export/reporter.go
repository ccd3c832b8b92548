package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
)

type TableConfig struct {
	// MaxWidth caps a column; longer cells are cut with "~". 0 means no limit.
	MaxWidth int
	// MaxRows limits printed rows; 0 prints all of them.
	MaxRows int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxWidth: 40,
		MaxRows:  50,
	}
}

// Reporter prints frames and run summaries to the console.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) WithConfig(cfg TableConfig) *Reporter {
	c.config = cfg
	return c
}

type frameView struct {
	Title  string
	Rows   int
	Header []string
	Cells  [][]string
	More   int
}

const frameTmpl = `{{if .Title}}
=== {{.Title}} ({{.Rows}} rows) ===
{{end}}{{separator}}
{{formatRow .Header}}
{{separator}}
{{range .Cells}}{{formatRow .}}
{{end}}{{separator}}
{{if .More}}... {{.More}} more rows
{{end}}`

// Frame prints df as a bordered table.
func (c *Reporter) Frame(title string, df dataframe.DataFrame) error {
	records := df.Records()
	if len(records) == 0 {
		return fmt.Errorf("frame %q has no columns", title)
	}

	view := frameView{Title: title, Rows: df.Nrow(), Header: records[0], Cells: records[1:]}
	if c.config.MaxRows > 0 && len(view.Cells) > c.config.MaxRows {
		view.More = len(view.Cells) - c.config.MaxRows
		view.Cells = view.Cells[:c.config.MaxRows]
	}

	widths := make([]int, len(view.Header))
	for _, row := range append([][]string{view.Header}, view.Cells...) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(c.truncate(cell)))
		}
	}

	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			var b strings.Builder
			b.WriteString("|")
			for i, cell := range cells {
				fmt.Fprintf(&b, " %-*s |", widths[i], c.truncate(cell))
			}
			return b.String()
		},
		"separator": func() string {
			var b strings.Builder
			b.WriteString("+")
			for _, w := range widths {
				b.WriteString(strings.Repeat("-", w+2))
				b.WriteString("+")
			}
			return b.String()
		},
	}

	t, err := template.New("frame").Funcs(funcMap).Parse(frameTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, view)
}

func (c *Reporter) truncate(s string) string {
	if c.config.MaxWidth <= 0 || utf8.RuneCountInString(s) <= c.config.MaxWidth {
		return s
	}
	r := []rune(s)
	return string(r[:c.config.MaxWidth-1]) + "~"
}
