package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/aptcache/internal/config"
)

func TestNewDefaultsToStderr(t *testing.T) {
	logger, err := New(config.Log{Level: "info"})
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, logger.Out)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud"})
	require.Error(t, err)
}

func TestNewCreatesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "aptcache.log")
	logger, err := New(config.Log{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Info("hello")
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRetryLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	RetryLogger{Logger: logger}.Warn("retrying", "url", "http://example.org", "attempt", 2, 7)

	out := buf.String()
	assert.Contains(t, out, `"url":"http://example.org"`)
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, "retrying")
}
