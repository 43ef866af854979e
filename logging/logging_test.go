package logging

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":    zapcore.DebugLevel,
		"info":     zapcore.InfoLevel,
		"warning":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"critical": zapcore.DPanicLevel,
		"DEBUG":    zapcore.DebugLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLevelNames(t *testing.T) {
	assert.Equal(t, []string{"debug", "info", "warning", "error", "critical"}, LevelNames())
}

var lineFormat = regexp.MustCompile(`^\[\d+\.\d{3}s\] (DEBUG|INFO|WARNING|ERROR): .+$`)

func TestFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := New(buf, zapcore.DebugLevel)

	logger.Debugf("Uploaded block size: %d bytes", 8192)
	logger.Infof("File uploaded to %s", "a.txt")
	logger.Warnf("careful")
	logger.Errorf("Permission error: %s", "550 denied")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Regexp(t, lineFormat, line)
	}
	assert.True(t, strings.HasSuffix(lines[0], " DEBUG: Uploaded block size: 8192 bytes"))
	assert.True(t, strings.HasSuffix(lines[1], " INFO: File uploaded to a.txt"))
	assert.True(t, strings.HasSuffix(lines[2], " WARNING: careful"))
	assert.True(t, strings.HasSuffix(lines[3], " ERROR: Permission error: 550 denied"))
}

func TestLevelFiltering(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewFromName(buf, "error")
	require.NoError(t, err)

	logger.Debugf("hidden")
	logger.Infof("hidden")
	logger.Errorf("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "ERROR: shown")

	_, err = NewFromName(buf, "loud")
	assert.Error(t, err)
}

func TestCriticalSilencesErrors(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewFromName(buf, "critical")
	require.NoError(t, err)

	logger.Errorf("not shown")
	assert.Empty(t, buf.String())
}
