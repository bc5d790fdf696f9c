package alignment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeCoverage(t *testing.T) {
	depth := strings.Join([]string{
		"chr1\t1\t0",
		"chr1\t2\t2",
		"chr1\t3\t4",
		"chr1\t4\t4",
		"chr2\t1\t10",
	}, "\n") + "\n"

	sum, err := SummarizeCoverage(strings.NewReader(depth))
	require.NoError(t, err)
	assert.EqualValues(t, 5, sum.Positions)
	assert.EqualValues(t, 4, sum.Covered)
	assert.InDelta(t, 4.0, sum.Mean, 1e-9)
	assert.InDelta(t, 4.0, sum.Median, 1e-9)
	// Sample standard deviation of 0, 2, 4, 4, 10.
	assert.InDelta(t, 3.741657, sum.StdDev, 1e-6)
	assert.InDelta(t, 0.8, sum.Breadth(), 1e-9)
}

func TestSummarizeCoverageEmpty(t *testing.T) {
	sum, err := SummarizeCoverage(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, sum.Positions)
	assert.Zero(t, sum.Breadth())
}

func TestSummarizeCoverageBadLine(t *testing.T) {
	_, err := SummarizeCoverage(strings.NewReader("chr1\t1\tx\n"))
	assert.Error(t, err)

	_, err = SummarizeCoverage(strings.NewReader("chr1 1 3\n"))
	assert.Error(t, err)
}

func TestSummarizeCoverageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.coverage")
	require.NoError(t, os.WriteFile(path, []byte("chr1\t1\t3\nchr1\t2\t5\n"), 0o644))
	sum, err := SummarizeCoverageFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sum.Mean, 1e-9)

	_, err = SummarizeCoverageFile(filepath.Join(t.TempDir(), "none.coverage"))
	assert.Error(t, err)
}
