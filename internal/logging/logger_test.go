package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestConfigureFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelWarn, &buf)
	t.Cleanup(Close)

	Info("hidden")
	Warn("shown", "provider", "claude")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "claude", rec["provider"])
}

func TestEnableFileLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, EnableFileLogging(dir, LevelDebug))
	Debug("written")
	Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
}
