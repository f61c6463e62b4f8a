package archivepool

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestOpenFileReadsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outer.jar")
	writeZip(t, path, map[string][]byte{"Foo.class": []byte("stub")})

	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	h, err := p.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, h.File, 1)
	assert.Equal(t, "Foo.class", h.File[0].Name)
}

func TestOpenNestedMaterializesToTempFile(t *testing.T) {
	dir := t.TempDir()

	var innerBuf bytes.Buffer
	innerZW := zip.NewWriter(&innerBuf)
	w, err := innerZW.Create("Bar.class")
	require.NoError(t, err)
	_, err = w.Write([]byte("inner-stub"))
	require.NoError(t, err)
	require.NoError(t, innerZW.Close())

	outerPath := filepath.Join(dir, "outer.jar")
	writeZip(t, outerPath, map[string][]byte{"lib/inner.jar": innerBuf.Bytes()})

	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	outer, err := p.OpenFile(outerPath)
	require.NoError(t, err)
	require.Len(t, outer.File, 1)

	nested, err := p.OpenNested(outer.File[0])
	require.NoError(t, err)
	require.Len(t, nested.File, 1)
	assert.Equal(t, "Bar.class", nested.File[0].Name)
}

func TestCloseRemovesTempDir(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	tempDir := p.tempDir
	require.NoError(t, p.Close())
	_, statErr := os.Stat(tempDir)
	assert.True(t, os.IsNotExist(statErr))
}
