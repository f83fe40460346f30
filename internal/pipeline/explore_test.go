package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/infrastructure"
	"github.com/mkguldan/empirical/internal/ingest"
)

type recordSink struct {
	records [][]string
}

func (s *recordSink) WriteRecord(record []string) error {
	s.records = append(s.records, record)
	return nil
}

func testLoader() *ingest.Loader {
	return ingest.NewLoader(ingest.DefaultOptions(), infrastructure.NewLogger(io.Discard, "error", false))
}

func TestExplore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deals.csv"), []byte("a;b\n1;\n2;\n3;4\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("not a workbook"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# notes"), 0644))

	r := newTestRunner(t)
	sink := &recordSink{}
	out, s, err := r.Explore(context.Background(), testLoader(), dir, sink)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"broken.xlsx", "deals.csv"}, out.Column("File"))
	assert.NotEmpty(t, out.Get(0, "Error"))

	deals := out.Row(1)
	assert.Equal(t, "csv", deals.Get("Format"))
	assert.Equal(t, "3", deals.Get("Rows"))
	assert.Equal(t, "2", deals.Get("Columns"))
	assert.Equal(t, "1", deals.Get("High_Missing_Columns"))
	assert.Equal(t, "", deals.Get("Error"))

	assert.Equal(t, out.Records(), sink.records)
	assert.Equal(t, "1", metric(t, s, "Files loaded"))
	assert.Equal(t, "1", metric(t, s, "Files failed"))

	_, _, err = r.Explore(context.Background(), testLoader(), filepath.Join(dir, "missing"), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}
