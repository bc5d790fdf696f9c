package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/data/s1_R1.fastq.gz", ShellQuote("/data/s1_R1.fastq.gz"))
	assert.Equal(t, "ILLUMINACLIP:a.fa:2:30:10", ShellQuote("ILLUMINACLIP:a.fa:2:30:10"))
	assert.Equal(t, "''", ShellQuote(""))
	assert.Equal(t, "'/my data/x.bam'", ShellQuote("/my data/x.bam"))
	assert.Equal(t, `'it'\''s'`, ShellQuote("it's"))
	assert.Equal(t, "'$(rm -rf /)'", ShellQuote("$(rm -rf /)"))
}

func TestRenderCommand(t *testing.T) {
	got, err := RenderCommand("samtools sort -@ {{threads}} -o {{ bam }} {{sam}}", map[string]string{
		"threads": "4",
		"bam":     "/w/s.bam",
		"sam":     "/w/my s.sam",
	})
	require.NoError(t, err)
	assert.Equal(t, "samtools sort -@ 4 -o /w/s.bam '/w/my s.sam'", got)
}

func TestRenderCommandUnknownTag(t *testing.T) {
	_, err := RenderCommand("bwa index {{reference}}", map[string]string{"ref": "/g.fa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference")
}

func TestTemplateTags(t *testing.T) {
	tags, err := TemplateTags("bwa mem -t {{threads}} {{ref}} {{r1_paired}} {{r2_paired}} > {{sam}}")
	require.NoError(t, err)
	assert.Equal(t, []string{"threads", "ref", "r1_paired", "r2_paired", "sam"}, tags)
}
