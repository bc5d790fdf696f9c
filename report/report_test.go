package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmaffy/whisper-pipe/pipeline"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	cov := filepath.Join(dir, "y.coverage")
	require.NoError(t, os.WriteFile(cov, []byte("chr1\t1\t2\nchr1\t2\t4\nchr1\t3\t0\n"), 0o644))

	var out bytes.Buffer
	err := Write(&out, dir, Summary{
		RunID: "run-1",
		Outcomes: []pipeline.SampleOutcome{
			{Sample: "x", Status: pipeline.StatusFailed, FailedStage: "trim", Err: errors.New("trim [x]: exit status 1")},
			{Sample: "y", Status: pipeline.StatusSucceeded, Artifacts: map[string]string{"coverage": cov}},
			{Sample: "z", Status: pipeline.StatusCancelled, Err: context.Canceled, Results: []pipeline.Result{
				{Stage: "trim"},
				{Stage: "align"},
			}},
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "failed     at trim: trim [x]: exit status 1")
	assert.Contains(t, text, "mean depth 2.00, breadth 66.7%")
	assert.Contains(t, text, "cancelled  after align: context canceled")
	assert.True(t, strings.HasSuffix(text, "Pipeline finished: 3 samples, 1 succeeded, 2 failed\n"))

	csv, err := os.ReadFile(filepath.Join(dir, CSVName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "sample,status,failed_stage,error,mean_depth"))
	assert.True(t, strings.HasPrefix(lines[1], "x,failed,trim,"))
	assert.True(t, strings.HasPrefix(lines[2], "y,succeeded,,,2.0"))
	assert.True(t, strings.HasSuffix(lines[3], ",align,run-1"), lines[3])

	html, err := os.ReadFile(filepath.Join(dir, HTMLName))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Mean depth")
}

func TestWriteNoSamples(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, Write(&out, dir, Summary{RunID: "run-0"}))
	assert.Equal(t, "Pipeline finished: 0 samples, 0 succeeded, 0 failed\n", out.String())
	assert.FileExists(t, filepath.Join(dir, CSVName))
	assert.FileExists(t, filepath.Join(dir, HTMLName))
}
