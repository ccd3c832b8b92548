package frame

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecords(t *testing.T, records [][]string) dataframe.DataFrame {
	t.Helper()
	df, err := FromRecords(records)
	require.NoError(t, err)
	return df
}

func TestParseJoinType(t *testing.T) {
	for _, in := range []string{"outer", "INNER", " left ", "right", "cross"} {
		_, err := ParseJoinType(in)
		assert.NoError(t, err, in)
	}

	jt, err := ParseJoinType("")
	require.NoError(t, err)
	assert.Equal(t, JoinOuter, jt)

	_, err = ParseJoinType("sideways")
	assert.ErrorIs(t, err, ErrUnsupportedJoin)
}

func TestJoin_OnKey(t *testing.T) {
	people := mustRecords(t, [][]string{
		{"id", "name"},
		{"2", "Bob"},
		{"1", "Ann"},
		{"3", "Cid"},
	})
	dinos := mustRecords(t, [][]string{
		{"id", "dino"},
		{"1", "T-Rex"},
		{"2", "Raptor"},
		{"4", "Stego"},
	})

	tests := []struct {
		how  JoinType
		rows int
	}{
		{JoinInner, 2},
		{JoinLeft, 3},
		{JoinRight, 3},
		{JoinOuter, 4},
		{JoinCross, 9},
	}

	for _, tt := range tests {
		t.Run(string(tt.how), func(t *testing.T) {
			out, err := Join(people, dinos, tt.how, "id")
			require.NoError(t, err)
			assert.Equal(t, tt.rows, out.Nrow())
		})
	}

	inner, err := Join(people, dinos, JoinInner, "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "dino"}, inner.Names())
	// keyed joins come back sorted on the key
	assert.Equal(t, "Ann", inner.Col("name").Elem(0).String())
	assert.Equal(t, "Raptor", inner.Col("dino").Elem(1).String())
}

func TestJoin_ByPosition(t *testing.T) {
	a := mustRecords(t, [][]string{{"x"}, {"1"}, {"2"}})
	b := mustRecords(t, [][]string{{"y"}, {"10"}, {"20"}})

	out, err := Join(a, b, JoinInner)

	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, out.Names())
	assert.Equal(t, 2, out.Nrow())
	assert.Equal(t, 20.0, out.Col("y").Elem(1).Float())
}

func TestFold_SkipsEmptyTables(t *testing.T) {
	a := mustRecords(t, [][]string{{"k", "a"}, {"1", "x"}})
	empty := Empty("k", "b")
	c := mustRecords(t, [][]string{{"k", "c"}, {"1", "z"}})

	out, err := Fold([]dataframe.DataFrame{a, empty, c}, JoinInner, true, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "a", "c"}, out.Names())
	assert.Equal(t, 1, out.Nrow())

	out, err = Fold([]dataframe.DataFrame{a, empty, c}, JoinInner, false, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Nrow())

	_, err = Fold(nil, JoinInner, true, "k")
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	df := mustRecords(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}})

	out, err := Select(df, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.Names())

	out, err = Select(df)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Ncol())

	_, err = Select(df, "missing")
	assert.Error(t, err)
}

func TestFromRecords_PadsShortRows(t *testing.T) {
	df := mustRecords(t, [][]string{{"name", "score"}, {"Ann", "3"}, {"Bob"}})

	assert.Equal(t, 2, df.Nrow())
	assert.True(t, df.Col("score").Elem(1).IsNA())

	_, err := FromRecords(nil)
	assert.Error(t, err)

	headerOnly := mustRecords(t, [][]string{{"a", "b"}})
	assert.Equal(t, 0, headerOnly.Nrow())
	assert.Equal(t, []string{"a", "b"}, headerOnly.Names())
}

func TestFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"entity", "qty"}).
			AddRow("AUR101", int64(3)).
			AddRow([]byte("AUR102"), nil),
	)

	rows, err := db.Query("SELECT entity, qty FROM t")
	require.NoError(t, err)
	defer rows.Close()

	df, err := FromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"entity", "qty"}, df.Names())
	assert.Equal(t, "AUR102", df.Col("entity").Elem(1).String())
	assert.True(t, df.Col("qty").Elem(1).IsNA())
}

func TestToHTML(t *testing.T) {
	df := mustRecords(t, [][]string{{"Name", "Favorite Dinosaur"}, {"Ann", "<T-Rex>"}, {"Bob", "Raptor"}})

	out, err := ToHTML(df, DefaultHTMLOptions())
	require.NoError(t, err)

	assert.Contains(t, out, `<table border="1" class="dataframe">`)
	assert.Contains(t, out, "<th>Favorite Dinosaur</th>")
	assert.Contains(t, out, "<th>1</th>")
	assert.Contains(t, out, "&lt;T-Rex&gt;")
	assert.NotContains(t, out, "<T-Rex>")
	assert.Equal(t, 2, strings.Count(out, "<td>Ann</td>")+strings.Count(out, "<td>Bob</td>"))

	styled, err := ToHTML(df, HTMLOptions{Styler: func(row int, column, value string) string {
		if column == "Name" && value == "Bob" {
			return "color: red"
		}
		return ""
	}})
	require.NoError(t, err)
	assert.Contains(t, styled, `<td style="color: red">Bob</td>`)
	assert.NotContains(t, styled, "<th>0</th>")
}
