package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/de-tools/report-atlas/pkg/frame"
	"github.com/de-tools/report-atlas/pkg/store/files"
	sqlstore "github.com/de-tools/report-atlas/pkg/store/sql"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatSQL   = "sql"
)

type CSVOptions struct {
	Delimiter rune
	HasHeader bool
}

func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', HasHeader: true}
}

type csvReader struct {
	opener files.Opener
	opts   CSVOptions
}

func NewCSVReader(opener files.Opener, opts CSVOptions) Reader {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &csvReader{opener: opener, opts: opts}
}

func (r *csvReader) Format() string { return FormatCSV }

func (r *csvReader) Read(ctx context.Context, path string) (dataframe.DataFrame, error) {
	rc, err := r.opener.Open(ctx, path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer rc.Close()

	df := dataframe.ReadCSV(rc,
		dataframe.WithDelimiter(r.opts.Delimiter),
		dataframe.HasHeader(r.opts.HasHeader),
		dataframe.DetectTypes(true),
	)
	if df.Err != nil {
		return df, fmt.Errorf("parse csv: %w", df.Err)
	}
	return df, nil
}

type excelReader struct {
	opener files.Opener
}

func NewExcelReader(opener files.Opener) Reader {
	return &excelReader{opener: opener}
}

func (r *excelReader) Format() string { return FormatExcel }

// Read accepts "book.xlsx" or "book.xlsx#Sheet".
func (r *excelReader) Read(ctx context.Context, ref string) (dataframe.DataFrame, error) {
	path, sheet, _ := strings.Cut(ref, "#")

	rc, err := r.opener.Open(ctx, path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer rc.Close()

	f, err := excelize.OpenReader(rc)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q is empty", sheet)
	}

	return frame.FromRecords(rows)
}

type sqlReader struct {
	q sqlstore.Querier
}

func NewSQLReader(q sqlstore.Querier) Reader {
	return &sqlReader{q: q}
}

func (r *sqlReader) Format() string { return FormatSQL }

func (r *sqlReader) Read(ctx context.Context, query string) (dataframe.DataFrame, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("query failed: %w", err)
	}
	defer sqlstore.CloseRows(ctx, rows)

	return frame.FromRows(rows)
}
