package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
}

func TestNewWithOptions_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := NewWithOptions(Options{Level: "info", Encoding: "json", FilePath: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("session started", StringField("symbol", "TCS"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session started")
	assert.Contains(t, string(data), `"symbol":"TCS"`)
}

func TestLogger_FromContext(t *testing.T) {
	base := NewNop()
	child := base.With(StringField("session_id", "abc"))

	assert.Same(t, base, base.FromContext(context.Background()))
	assert.Same(t, child, base.FromContext(NewContext(context.Background(), child)))
}
