package frame

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// missing is the cell value gota treats as NA during type detection.
const missing = "NaN"

// FromRecords builds a frame from a header row followed by data rows. Short
// rows are padded with missing values; a header without data rows yields an
// empty frame that still carries its column names.
func FromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no header row")
	}

	header := records[0]
	if len(records) == 1 {
		return Empty(header...), nil
	}

	padded := make([][]string, 0, len(records))
	padded = append(padded, header)
	for _, row := range records[1:] {
		if len(row) < len(header) {
			full := make([]string, len(header))
			copy(full, row)
			for i := len(row); i < len(header); i++ {
				full[i] = missing
			}
			row = full
		} else if len(row) > len(header) {
			row = row[:len(header)]
		}
		padded = append(padded, row)
	}

	df := dataframe.LoadRecords(padded, dataframe.DetectTypes(true), dataframe.HasHeader(true))
	if df.Err != nil {
		return df, fmt.Errorf("load records: %w", df.Err)
	}
	return df, nil
}

// Empty returns a frame with the given columns and no rows.
func Empty(columns ...string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, series.New([]string{}, series.String, c))
	}
	return dataframe.New(cols...)
}

// FromRows drains rows into a frame. The caller keeps ownership of rows.
func FromRows(rows *sql.Rows) (dataframe.DataFrame, error) {
	columns, err := rows.Columns()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read columns: %w", err)
	}

	records := [][]string{columns}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("scan row %d: %w", len(records), err)
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = formatCell(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("iterate rows: %w", err)
	}

	return FromRecords(records)
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return missing
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
