package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<root/>"), 0644))
}

func TestWalkDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "localization", "toy_trinket.string_table.xml"))
	touch(t, filepath.Join(dir, "dialogue.string_table.XML"))
	touch(t, filepath.Join(dir, "notes.xml"))
	touch(t, filepath.Join(dir, "README.md"))

	entries, err := Walk(dir)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "dialogue.string_table.XML", entries[0].Rel)
	assert.Equal(t, filepath.Join("localization", "toy_trinket.string_table.xml"), entries[1].Rel)
	assert.True(t, filepath.IsAbs(entries[1].Path))
}

func TestWalkSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.xml")
	touch(t, path)

	entries, err := Walk(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "custom.xml", entries[0].Rel)
}

func TestWalkMissing(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
