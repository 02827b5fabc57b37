package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesLoggers(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug"}))
	assert.NotNil(t, Logger)
	assert.NotNil(t, InfoLogger)
	assert.NotNil(t, ErrorLogger)
}

func TestInitWritesToConfiguredFiles(t *testing.T) {
	dir := t.TempDir()
	infoPath := filepath.Join(dir, "logs", "info.log")
	errPath := filepath.Join(dir, "logs", "error.log")

	require.NoError(t, Init(Config{InfoLogPath: infoPath, ErrorLogPath: errPath, Level: "info"}))
	Info("hello")
	Error("oops")

	assert.FileExists(t, infoPath)
	assert.FileExists(t, errPath)
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("bogus"), parseLevel("info"))
}
