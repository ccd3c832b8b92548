package export

import (
	"bytes"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/services/catalog"
)

func ships() dataframe.DataFrame {
	return dataframe.LoadRecords([][]string{
		{"Ship", "Class"},
		{"Enterprise", "Constitution"},
		{"Defiant", "Defiant"},
	}, dataframe.DetectTypes(false))
}

func TestFrame(t *testing.T) {
	tests := []struct {
		name     string
		config   TableConfig
		contains []string
	}{
		{
			name:   "default widths",
			config: DefaultTableConfig(),
			contains: []string{
				"=== fleet (2 rows) ===",
				"| Ship       | Class        |",
				"| Enterprise | Constitution |",
			},
		},
		{
			name:     "long cells are cut",
			config:   TableConfig{MaxWidth: 5},
			contains: []string{"| Ente~ | Cons~ |", "| Ship  | Class |"},
		},
		{
			name:     "zero width means no limit",
			config:   TableConfig{MaxWidth: 0},
			contains: []string{"| Enterprise | Constitution |"},
		},
		{
			name:     "row limit",
			config:   TableConfig{MaxWidth: 40, MaxRows: 1},
			contains: []string{"... 1 more rows"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			reporter := NewReporter(&out).WithConfig(tt.config)

			require.NoError(t, reporter.Frame("fleet", ships()))

			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestTree(t *testing.T) {
	var out bytes.Buffer
	root := &catalog.Node{
		Name: "AUR",
		Children: []*catalog.Node{
			{Name: "AUR101", IsTool: true, Status: &domain.ToolStatus{Name: "AUR101", State: "Up", Cu: true, Au: true}},
		},
	}

	require.NoError(t, NewReporter(&out).Tree(root))

	assert.Contains(t, out.String(), "AUR\n--> AUR101\n")
	assert.Contains(t, out.String(), "- AUR101: Up [Cu] [Au]")
}
