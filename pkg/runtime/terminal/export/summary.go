package export

import (
	"fmt"
	"text/template"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/catalog"
)

// SendSummary describes a finished report run.
type SendSummary struct {
	Job        string
	Subject    string
	From       string
	Recipients []string
	Parts      string
	Sent       bool
}

const summaryTmpl = `
{{.Job}}: {{if .Sent}}sent{{else}}built, not sent{{end}}
Subject: {{.Subject}}
From: {{.From}}
To: {{range $i, $r := .Recipients}}{{if $i}}, {{end}}{{$r}}{{end}}

=== Parts ===
{{.Parts}}
`

func (c *Reporter) Summary(s SendSummary) error {
	t, err := template.New("summary").Parse(summaryTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, s)
}

const statusTmpl = `
=== Status ===
{{range .}}- {{.Name}}: {{.State}}{{if .Cu}} [Cu]{{end}}{{if .Pb}} [Pb]{{end}}{{if .Au}} [Au]{{end}}
{{end}}`

// Tree prints the hierarchy, followed by the status of each tool when it
// was read.
func (c *Reporter) Tree(root *catalog.Node) error {
	if _, err := fmt.Fprint(c.writer, root.String()); err != nil {
		return err
	}

	var statuses []*domain.ToolStatus
	root.Walk(func(n *catalog.Node) {
		if n.Status != nil {
			statuses = append(statuses, n.Status)
		}
	})
	if len(statuses) == 0 {
		return nil
	}

	t, err := template.New("status").Parse(statusTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, statuses)
}
