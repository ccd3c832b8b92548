package domain

type ElementKind string

const (
	ElementCSV   ElementKind = "csv"
	ElementExcel ElementKind = "excel"
	ElementSQL   ElementKind = "sql"
	ElementImage ElementKind = "image"
)

type BlockType string

const (
	BlockText  BlockType = "text"
	BlockTable BlockType = "table"
	BlockPlot  BlockType = "plot"
	BlockImage BlockType = "image"
)

// ReportJob is the declarative form of a report script: which data to load,
// what to put in the message body and where to send it.
type ReportJob struct {
	Name     string       `mapstructure:"name"`
	Elements []Element    `mapstructure:"elements"`
	Blocks   []Block      `mapstructure:"blocks"`
	Email    Envelope     `mapstructure:"email"`
	SMTP     SMTPSettings `mapstructure:"smtp"`
}

// Element is a nickname bound to a data source.
type Element struct {
	Name    string      `mapstructure:"name"`
	Kind    ElementKind `mapstructure:"kind"`
	Path    string      `mapstructure:"path"`
	Query   string      `mapstructure:"query"`
	Profile string      `mapstructure:"profile"`
}

// Block is one piece of the report body, applied in order.
type Block struct {
	Type       BlockType `mapstructure:"type"`
	Header     string    `mapstructure:"header"`
	Body       string    `mapstructure:"body"`
	HeaderSize int       `mapstructure:"header_size"`
	RawHTML    bool      `mapstructure:"raw_html"`
	Tables     []string  `mapstructure:"tables"`
	Columns    []string  `mapstructure:"columns"`
	JoinType   string    `mapstructure:"join_type"`
	JoinOn     []string  `mapstructure:"join_on"`
	X          string    `mapstructure:"x"`
	Y          string    `mapstructure:"y"`
	Title      string    `mapstructure:"title"`
	XLabel     string    `mapstructure:"x_label"`
	YLabel     string    `mapstructure:"y_label"`
	Kind       string    `mapstructure:"kind"`
	XRotation  float64   `mapstructure:"x_rotation"`
	Images     []string  `mapstructure:"images"`
}

type Envelope struct {
	Subject string   `mapstructure:"subject"`
	From    string   `mapstructure:"from"`
	To      []string `mapstructure:"to"`
}
