package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vcpanel v")
}

func TestUnknownCommand(t *testing.T) {
	_, errOut, err := runCLI(t, "nope")
	require.Error(t, err)
	assert.Contains(t, errOut, "Error:")
}

func TestRootRegistersJobs(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{
		"founders", "filter", "clean", "categorize", "group", "deals", "single", "elite",
		"controls", "log", "merge-spend", "lag-employees", "audit", "compare", "describe",
		"explore", "run", "version",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestDescribeCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "panel.csv"), []byte("a;b\n1;x\n2;y\n"), 0644))

	out, _, err := runCLI(t, "describe", "--data-dir", dir, "--log-level", "error", "--input", "panel.csv", "--output", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset Profile")
	assert.FileExists(t, filepath.Join(dir, "profile.csv"))
	assert.FileExists(t, filepath.Join(dir, "profile_summary.csv"))

	_, _, err = runCLI(t, "describe", "--data-dir", dir, "--log-level", "error", "--input", "absent.csv")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestExploreCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deals.csv"), []byte("a,b\n1,2\n"), 0644))

	out, _, err := runCLI(t, "explore", "--data-dir", dir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Data Directory Inventory")

	data, err := os.ReadFile(filepath.Join(dir, "reports", "data_inventory.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "deals.csv")
	assert.FileExists(t, filepath.Join(dir, "reports", "data_inventory_summary.csv"))
}

func TestInvalidFormatRejected(t *testing.T) {
	_, _, err := runCLI(t, "describe", "--data-dir", t.TempDir(), "--formats", "parquet")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestNormalizeFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "dta", "xlsx"}, normalizeFormats([]string{" CSV", ".dta", "", "xlsx"}))
}
