package utils

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLog(t *testing.T) {
	logContent := `{"time":"2025-06-18T21:11:02.572267197+02:00","level":"INFO","msg":"PIPELINE","PROGRAM":"trim","SAMPLE":"NIGERIAN_LOCAL","STATUS":"STARTED","CMD":"java -jar trimmomatic.jar PE","RUN":"r1"}
{"time":"2025-06-18T21:20:17.308876904+02:00","level":"INFO","msg":"PIPELINE","PROGRAM":"trim","SAMPLE":"NIGERIAN_LOCAL","STATUS":"COMPLETED","RUN":"r1"}
{"time":"2025-06-18T21:20:17.310433516+02:00","level":"INFO","msg":"PIPELINE","PROGRAM":"trim","SAMPLE":"SEOL_TAGADI","STATUS":"STARTED","RUN":"r1"}
{"time":"2025-06-18T21:20:18.000000000+02:00","level":"INFO","msg":"discovered samples","count":2}
not json at all
{"time":"2025-06-18T21:23:58.952009702+02:00","level":"INFO","msg":"PIPELINE","PROGRAM":"trim","SAMPLE":"NIGERIAN_LOCAL","STATUS":"STARTED","RUN":"r2"}
{"time":"2025-06-18T21:23:59.23049438+02:00","level":"ERROR","msg":"PIPELINE","PROGRAM":"align","SAMPLE":"NIGERIAN_LOCAL","STATUS":"FAILED","RUN":"r2"}`

	logFilePath := filepath.Join(t.TempDir(), "pipeline.log")
	require.NoError(t, os.WriteFile(logFilePath, []byte(logContent), 0o644))

	logEntries, err := ParseLogFile(logFilePath)
	require.NoError(t, err)
	require.Len(t, logEntries, 5)
	assert.Equal(t, "java -jar trimmomatic.jar PE", logEntries[0].Cmd)
	assert.Equal(t, 2025, logEntries[0].Timestamp.Year())

	assert.True(t, StageHasCompleted(logEntries, "trim", "NIGERIAN_LOCAL"))
	assert.False(t, StageHasCompleted(logEntries, "trim", "SEOL_TAGADI"))
	assert.False(t, StageHasCompleted(logEntries, "align", "NIGERIAN_LOCAL"))
}

func TestParseLogMissingFile(t *testing.T) {
	entries, err := ParseLogFile(filepath.Join(t.TempDir(), "nope.log"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoggerWritesJournal(t *testing.T) {
	var console, journal bytes.Buffer
	logger := NewLogger(ParseLevel("debug"), "text", &console, &journal)
	logger.Info(JournalMsg, KeyProgram, "sort", KeySample, "s1", KeyStatus, StatusCompleted)
	logger.Debug("noise")

	assert.Contains(t, console.String(), "noise")
	assert.NotContains(t, journal.String(), "noise", "journal only keeps info and above")

	path := filepath.Join(t.TempDir(), "pipeline.log")
	require.NoError(t, os.WriteFile(path, journal.Bytes(), 0o644))
	entries, err := ParseLogFile(path)
	require.NoError(t, err)
	assert.True(t, StageHasCompleted(entries, "sort", "s1"))

	quiet := NewLogger(ParseLevel("warn"), "json", io.Discard, nil)
	assert.False(t, quiet.Enabled(context.Background(), ParseLevel("info")))
}
