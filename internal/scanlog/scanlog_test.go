package scanlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesLeveledLines(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf)

	lg.Info("classpath", "scan started", map[string]any{"elements": 3})
	lg.Warn("archivepool", "masked duplicate", map[string]any{"path": "com/example/Foo.class"})
	lg.Error("linker", "indexing disabled", nil)

	out := buf.String()
	assert.Contains(t, out, "[info] classpath: scan started")
	assert.Contains(t, out, "[warn] archivepool: masked duplicate")
	assert.Contains(t, out, "[error] linker: indexing disabled")
}

func TestDeferredErrorsLogsOnePerError(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf)
	lg.DeferredErrors("classfile", []error{errString("bad magic"), errString("truncated")})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "bad magic")
	assert.Contains(t, lines[1], "truncated")
}

type errString string

func (e errString) Error() string { return string(e) }

func TestWriteSARIFProducesOneRunWithResults(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSARIF(&buf, []Diagnostic{
		{Component: "classfile", Message: "truncated stream", Token: "com/example/Foo.class"},
		{Component: "archivepool", Message: "open failed", Token: "lib/a.jar"},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "\"version\"")
	assert.Contains(t, out, "truncated stream")
	assert.Contains(t, out, "open failed")
}
