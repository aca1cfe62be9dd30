package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	for _, f := range Formats {
		assert.True(t, Valid(f), f)
	}
	assert.False(t, Valid("doc"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("TXT"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "transcript.zip", Filename("zip"))
	assert.Equal(t, "transcript.srt", Filename("srt"))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, "txt", []byte("hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transcript.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestSaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "nested")

	path, err := Save(dir, "json", []byte("{}"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSaveRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()

	_, err := Save(dir, "doc", []byte("x"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file may be written")
}
