package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"error", "WARN", "Info", "debug", "TRACE"} {
		level, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToUpper(name), level.String())
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestConfigureFileAndLevels(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "nullfs.log")
	l := NewLogger("TEST")
	child := l.WithPrefix("child")

	require.NoError(t, l.Configure(Config{Level: "DEBUG", File: file, MaxSize: 1, MaxBackups: 1}))
	assert.Equal(t, LevelDebug, child.Level())

	child.Debug("visible %d", 1)
	child.Trace("hidden %d", 2)
	l.SetLevel(LevelTrace)
	child.Trace("now visible %d", 3)
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "visible 1")
	assert.NotContains(t, out, "hidden 2")
	assert.Contains(t, out, "now visible 3")
	assert.Contains(t, out, "TRACE")
	assert.Contains(t, out, "child")
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	l := NewLogger("TEST")
	assert.Error(t, l.Configure(Config{Level: "LOUD"}))
	assert.Equal(t, LevelInfo, l.Level())
}

func TestConfigureWithoutLevelKeepsCurrent(t *testing.T) {
	l := NewLogger("TEST")
	l.SetLevel(LevelDebug)

	require.NoError(t, l.Configure(Config{}))
	assert.Equal(t, LevelDebug, l.Level())
}
