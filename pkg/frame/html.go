package frame

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// CellStyler returns inline CSS for one data cell, or "" for none.
type CellStyler func(row int, column, value string) string

type HTMLOptions struct {
	// Index renders the row position as the first column.
	Index  bool
	Class  string
	Styler CellStyler
}

func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{
		Index: true,
		Class: "dataframe",
	}
}

type htmlCell struct {
	Value string
	Style template.CSS
}

type htmlRow struct {
	Index string
	Cells []htmlCell
}

type htmlTable struct {
	Class   string
	Index   bool
	Columns []string
	Rows    []htmlRow
}

var tableTmpl = template.Must(template.New("table").Parse(`<table border="1" class="{{.Class}}">
  <thead>
    <tr style="text-align: right;">{{if .Index}}
      <th></th>{{end}}{{range .Columns}}
      <th>{{.}}</th>{{end}}
    </tr>
  </thead>
  <tbody>{{range .Rows}}
    <tr>{{if $.Index}}
      <th>{{.Index}}</th>{{end}}{{range .Cells}}
      <td{{if .Style}} style="{{.Style}}"{{end}}>{{.Value}}</td>{{end}}
    </tr>{{end}}
  </tbody>
</table>
`))

// ToHTML renders df as an HTML table. Cell values are escaped.
func ToHTML(df dataframe.DataFrame, opts HTMLOptions) (string, error) {
	if df.Err != nil {
		return "", fmt.Errorf("render table: %w", df.Err)
	}

	columns := df.Names()
	t := htmlTable{
		Class:   opts.Class,
		Index:   opts.Index,
		Columns: columns,
		Rows:    make([]htmlRow, 0, df.Nrow()),
	}

	// Records includes the header row.
	records := df.Records()
	for i, record := range records[min(1, len(records)):] {
		row := htmlRow{Index: strconv.Itoa(i), Cells: make([]htmlCell, len(record))}
		for j, value := range record {
			cell := htmlCell{Value: value}
			if opts.Styler != nil {
				cell.Style = template.CSS(opts.Styler(i, columns[j], value))
			}
			row.Cells[j] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	var b strings.Builder
	if err := tableTmpl.Execute(&b, t); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return b.String(), nil
}
