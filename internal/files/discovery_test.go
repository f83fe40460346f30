package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestDiscovery_FindDataFiles(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "core_tables")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	for _, name := range []string{"Deal.csv", "Company.XLSX", "panel.dta", "notes.md", "~$Company.xlsx", ".hidden.csv"} {
		touch(t, dir, name)
	}

	tests := []struct {
		name string
		base string
		dir  string
	}{
		{name: "relative to base", base: base, dir: "core_tables"},
		{name: "absolute dir", base: "/ignored", dir: dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := NewDiscovery(tt.base).FindDataFiles(tt.dir)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
			}
			assert.Equal(t, []string{"Company.XLSX", "Deal.csv", "panel.dta"}, names)
			assert.Equal(t, ".xlsx", found[0].Ext)
			assert.Equal(t, filepath.Join(dir, "Deal.csv"), found[1].Path)
		})
	}
}

func TestDiscovery_FindFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.csv")
	touch(t, dir, "b.dta")

	found, err := NewDiscovery("").FindFiles(dir, ".dta")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b.dta", found[0].Name)
}

func TestDiscovery_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindDataFiles("absent")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	files := []FileInfo{
		{Name: "old", ModTime: now.Add(-time.Hour)},
		{Name: "new", ModTime: now},
		{Name: "mid", ModTime: now.Add(-time.Minute)},
	}

	latest, ok := GetLatestFile(files)
	assert.True(t, ok)
	assert.Equal(t, "new", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}
