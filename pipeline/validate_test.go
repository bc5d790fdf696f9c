package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBAM(t *testing.T) []byte {
	t.Helper()
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	h, err := sam.NewHeader(nil, []*sam.Reference{ref})
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, h, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestValidArtifactBAM(t *testing.T) {
	dir := t.TempDir()
	data := writeBAM(t)

	good := filepath.Join(dir, "s_fixed.bam")
	require.NoError(t, os.WriteFile(good, data, 0o644))
	assert.NoError(t, ValidArtifact(good))

	truncated := filepath.Join(dir, "cut.bam")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-28], 0o644))
	assert.Error(t, ValidArtifact(truncated))

	garbage := filepath.Join(dir, "junk.bam")
	require.NoError(t, os.WriteFile(garbage, []byte("not a bam file at all"), 0o644))
	assert.Error(t, ValidArtifact(garbage))
}

func TestValidArtifactGzip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("@r1\nACGT\n+\nIIII\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	good := filepath.Join(dir, "s_R1_paired.fastq.gz")
	require.NoError(t, os.WriteFile(good, buf.Bytes(), 0o644))
	assert.NoError(t, ValidArtifact(good))

	bad := filepath.Join(dir, "bad.fastq.gz")
	require.NoError(t, os.WriteFile(bad, []byte("plain text"), 0o644))
	assert.Error(t, ValidArtifact(bad))
}

func TestValidArtifactOther(t *testing.T) {
	dir := t.TempDir()
	vcf := filepath.Join(dir, "s.vcf")
	require.NoError(t, os.WriteFile(vcf, []byte("##fileformat=VCFv4.2\n"), 0o644))
	assert.NoError(t, ValidArtifact(vcf))

	empty := filepath.Join(dir, "s.coverage")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.Error(t, ValidArtifact(empty))

	assert.Error(t, ValidArtifact(filepath.Join(dir, "missing.tab")))
	assert.Error(t, ValidArtifact(dir))
}
