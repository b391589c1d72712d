package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geo.txt")
	require.NoError(t, os.WriteFile(path, []byte("Paris is the capital of France."), 0o644))

	text, label, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", text)
	assert.Equal(t, "geo.txt", label)
}

func TestLoadBytes(t *testing.T) {
	text, err := LoadBytes("notes.MD", []byte("# Title\n\nBody"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody", text)

	_, err = LoadBytes("sheet.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadBytes("bad.txt", []byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)
}

func TestLoadBytes_InvalidPDF(t *testing.T) {
	_, err := LoadBytes("paper.pdf", []byte("this is not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open PDF")
}

func TestLoadFile_Missing(t *testing.T) {
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
