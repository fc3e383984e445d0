package report

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepsize/pkg/meter"
	"github.com/deepsize/pkg/sizing"
)

type pair struct {
	Left  *int64
	Right *int64
}

func measureWithReport(t *testing.T) *Report {
	t.Helper()

	var got *Report
	m, err := meter.NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		WithListenerFactory(NewListenerFactory(func(r *Report) { got = r })).
		Build()
	require.NoError(t, err)

	a, b := int64(1), int64(2)
	_, err = m.MeasureDeep(&pair{Left: &a, Right: &b})
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func TestRecorder_BuildsReport(t *testing.T) {
	r := measureWithReport(t)

	assert.Equal(t, "*report.pair", r.RootType)
	assert.Equal(t, 3, r.Nodes)
	assert.Equal(t, 2, r.Edges)
	// Root struct of two pointers plus two int64 targets.
	assert.Equal(t, int64(32), r.TotalBytes)
	assert.Equal(t, TypeStats{Count: 1, Bytes: 16}, r.ByType["*report.pair"])
	assert.Equal(t, TypeStats{Count: 2, Bytes: 16}, r.ByType["*int64"])
}

func TestRecorder_FreshReportPerTraversal(t *testing.T) {
	var reports []*Report
	m, err := meter.NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		WithListenerFactory(NewListenerFactory(func(r *Report) { reports = append(reports, r) })).
		Build()
	require.NoError(t, err)

	v := int64(7)
	for i := 0; i < 3; i++ {
		_, err = m.MeasureDeep(&v)
		require.NoError(t, err)
	}

	require.Len(t, reports, 3)
	assert.NotSame(t, reports[0], reports[1])
	assert.Equal(t, reports[0].TotalBytes, reports[2].TotalBytes)
}

func TestJSONWriter_Roundtrip(t *testing.T) {
	r := measureWithReport(t)

	var buf bytes.Buffer
	require.NoError(t, NewPrettyJSONWriter().Write(r, &buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *r, decoded)
	assert.Contains(t, buf.String(), "\n  \"root_type\"")
}

func TestJSONWriter_WriteToFile(t *testing.T) {
	r := measureWithReport(t)
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, NewJSONWriter().WriteToFile(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.TotalBytes, decoded.TotalBytes)
}

func TestGzipWriter_Roundtrip(t *testing.T) {
	r := measureWithReport(t)

	var buf bytes.Buffer
	require.NoError(t, NewGzipWriter().Write(r, &buf))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	defer gz.Close()

	var decoded Report
	require.NoError(t, json.NewDecoder(gz).Decode(&decoded))
	assert.Equal(t, *r, decoded)
}
