package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, fixturePage{texts: []fixtureText{{50, 700, "A"}}}, fixturePage{})
	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("x"), 0o600))
	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf"), 0o600))

	tests := []struct {
		name    string
		path    string
		valid   bool
		message string
	}{
		{"valid", good, true, ""},
		{"empty path", "", false, "path cannot be empty"},
		{"missing", filepath.Join(dir, "missing.pdf"), false, "file does not exist"},
		{"directory", dir, false, "path is a directory"},
		{"wrong extension", text, false, "file is not a PDF"},
		{"empty file", empty, false, "file is empty"},
		{"unparseable", broken, false, "invalid PDF file"},
	}
	v := NewValidator(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateFile(tt.path)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.path, res.Path)
			if tt.valid {
				assert.Equal(t, 2, res.Pages)
				assert.Empty(t, res.Message)
				return
			}
			assert.Contains(t, res.Message, tt.message)
		})
	}
}

func TestValidator_MaxFileSize(t *testing.T) {
	path := writeFixture(t, fixturePage{texts: []fixtureText{{50, 700, "A"}}})
	err := NewValidator(16).Check(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestIsPDFName(t *testing.T) {
	assert.True(t, IsPDFName("form.PDF"))
	assert.True(t, IsPDFName("/a/b/form.pdf"))
	assert.False(t, IsPDFName("form.pdf.txt"))
	assert.False(t, IsPDFName("pdf"))
}
