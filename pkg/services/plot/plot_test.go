package plot

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pirates(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df := dataframe.LoadRecords([][]string{
		{"Month", "Profit (doubloons)", "Ships"},
		{"Jan", "120", "3"},
		{"Feb", "95.5", "3"},
		{"Mar", "NaN", "4"},
		{"Apr", "140", "5"},
	})
	require.NoError(t, df.Err)
	return df
}

func TestRender_DefaultsToJPEGLine(t *testing.T) {
	img, err := Render(pirates(t), "Month", "Profit (doubloons)", Options{Title: "Plunder"})

	require.NoError(t, err)
	assert.Equal(t, "jpg", img.Format)
	assert.Equal(t, "image/jpeg", http.DetectContentType(img.Data))
}

func TestRender_Kinds(t *testing.T) {
	df := pirates(t)

	for _, kind := range []Kind{KindLine, KindScatter, KindBar} {
		t.Run(string(kind), func(t *testing.T) {
			img, err := Render(df, "Ships", "Profit (doubloons)", Options{Kind: kind, Format: "png", XRotation: 45})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(img.Data, []byte("\x89PNG")))
		})
	}
}

func TestRender_Errors(t *testing.T) {
	df := pirates(t)

	_, err := Render(df, "Month", "Missing", Options{})
	assert.ErrorContains(t, err, `column "Missing" not found`)

	_, err = Render(df, "Ships", "Month", Options{})
	assert.ErrorContains(t, err, `column "Month" is not numeric`)

	_, err = Render(df, "Month", "Ships", Options{Kind: "pie"})
	assert.ErrorContains(t, err, "unsupported plot kind")
}
