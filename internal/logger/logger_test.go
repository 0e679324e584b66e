package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesDailyFile(t *testing.T) {
	root := t.TempDir()
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(root, "debug", false)
	require.NoError(t, err)
	log.Debugw("hello", "k", "v")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"logger online"`)
	assert.Contains(t, string(raw), `"msg":"hello"`)
}

func TestNew_LevelFilters(t *testing.T) {
	root := t.TempDir()
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(root, "bogus", false)
	require.NoError(t, err)
	log.Debugw("hidden")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
}
