package variants

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVCF = `##fileformat=VCFv4.2
##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	s1
chr1	100	.	A	G	50	PASS	DP=20	GT:AD:DP:GQ	0/1:12,8:20:99
chr1	200	.	C	T	40	PASS	DP=9	GT:AD:DP	1/1:0,9:9
chr2	300	.	G	A,C	30	PASS	.	GT:AD:DP	1/2:1,4,5:10
chr2	400	.	T	A	30	PASS	.	GT:AD:DP	0/1:3,0:0
chr2	500	.	T	A	30	PASS	.	GT:GQ	0/1:20
chr3	600	.	T	A
`

func quietLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestVcfToTab(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, VcfToTab(strings.NewReader(testVCF), &out))

	want := "#CHROM\tPOS\n" +
		"chr1\t100\n" +
		"chr1\t200\n" +
		"chr2\t300\n" +
		"chr2\t400\n" +
		"chr2\t500\n" +
		"chr3\t600\n"
	assert.Equal(t, want, out.String())
}

func TestAlleleFrequency(t *testing.T) {
	fields := strings.Split("chr1\t100\t.\tA\tG\t50\tPASS\tDP=20\tGT:AD:DP:GQ\t0/1:12,8:20:99", "\t")
	freq, err := AlleleFrequency(fields)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, freq, 1e-9)
}

func TestAlleleFrequencies(t *testing.T) {
	logger, logs := quietLogger()
	var out bytes.Buffer
	stats, err := AlleleFrequencies(strings.NewReader(testVCF), &out, logger)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "0/1:12,8:20:99\t40.00%"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "1/1:0,9:9\t100.00%"), lines[1])

	// multi-allelic, zero depth, no AD/DP, too few columns
	assert.Equal(t, FreqStats{Written: 2, Skipped: 4}, stats)
	assert.Equal(t, 4, strings.Count(logs.String(), "skipping line"))
}

func TestFreqName(t *testing.T) {
	assert.Equal(t, "/w/s1_freq.tab", FreqName("/w/s1.tab"))
	assert.Equal(t, "/w/s1_freq.tab", FreqName("/w/s1.vcf"))
}

func TestDirectoryConversions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.vcf", "a.vcf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(testVCF), 0o644))
	}

	done, err := ConvertVcfDir(dir)
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, filepath.Join(dir, "a.tab"), done[0][1])

	tab, err := os.ReadFile(filepath.Join(dir, "b.tab"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(tab), "#CHROM\tPOS\nchr1\t100\n"))

	// Two-column tables carry no FORMAT data, so nothing is written for them.
	logger, _ := quietLogger()
	processed, err := AlleleFrequencyDir(dir, logger)
	require.NoError(t, err)
	assert.Empty(t, processed)
	assert.NoFileExists(t, filepath.Join(dir, "a_freq.tab"))
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".part.*"))
	assert.Empty(t, leftovers)
}

func TestAlleleFrequencyDirKeepsRunOutput(t *testing.T) {
	dir := t.TempDir()
	vcf := filepath.Join(dir, "s.vcf")
	require.NoError(t, os.WriteFile(vcf, []byte(testVCF), 0o644))

	// What a run leaves behind: s.tab with CHROM/POS and s_freq.tab from the VCF.
	logger, _ := quietLogger()
	require.NoError(t, VcfToTabFile(vcf, filepath.Join(dir, "s.tab")))
	_, err := AlleleFrequencyFile(vcf, filepath.Join(dir, "s_freq.tab"), logger)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, "s_freq.tab"))
	require.NoError(t, err)
	require.Contains(t, string(before), "40.00%")

	processed, err := AlleleFrequencyDir(dir, logger)
	require.NoError(t, err)
	assert.Empty(t, processed)

	after, err := os.ReadFile(filepath.Join(dir, "s_freq.tab"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAlleleFrequencyDirWritesFullTables(t *testing.T) {
	dir := t.TempDir()
	// A table that still carries FORMAT and sample columns.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full.tab"), []byte(testVCF), 0o644))

	logger, _ := quietLogger()
	processed, err := AlleleFrequencyDir(dir, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "full.tab")}, processed)

	freq, err := os.ReadFile(filepath.Join(dir, "full_freq.tab"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(freq), "\n"))

	// A second pass leaves the _freq output alone.
	processed, err = AlleleFrequencyDir(dir, logger)
	require.NoError(t, err)
	assert.Len(t, processed, 1)
	assert.NoFileExists(t, filepath.Join(dir, "full_freq_freq.tab"))
}

func TestAlleleFrequencyFileMissingInput(t *testing.T) {
	logger, _ := quietLogger()
	_, err := AlleleFrequencyFile(filepath.Join(t.TempDir(), "none.vcf"), filepath.Join(t.TempDir(), "out.tab"), logger)
	assert.Error(t, err)
}
