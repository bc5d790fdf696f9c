package preflight

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyFasta = ">chr1 test\nACGTACGTAC\nGT\n>chr2\nTTGCA\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCheckReferencesBothPresent(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "genome.fa")
	alt := filepath.Join(dir, "genome.fasta")
	writeFile(t, ref, tinyFasta)
	writeFile(t, alt, ">only\nACGT\n")

	refs, err := CheckReferences(ref, alt)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, ReferenceInfo{Path: ref, Sequences: 2, Length: 17}, refs[0])
	assert.Equal(t, 1, refs[1].Sequences)
}

func TestCheckReferencesReportsAllMissing(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "genome.fa")
	writeFile(t, ref, tinyFasta)
	alt := filepath.Join(dir, "genome.fasta")
	other := filepath.Join(dir, "other.fa")

	_, err := CheckReferences(ref, alt, other)
	require.ErrorIs(t, err, ErrMissingReference)

	var missing *MissingReferenceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{alt, other}, missing.Paths)
}

func TestCheckReferencesDirectoryIsMissing(t *testing.T) {
	_, err := CheckReferences(t.TempDir())
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestCheckReferencesEmptyFile(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "empty.fa")
	writeFile(t, ref, "")
	_, err := CheckReferences(ref)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestCheckReferencesGzip(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "genome.fa.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(tinyFasta))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(ref, buf.Bytes(), 0o644))

	refs, err := CheckReferences(ref)
	require.NoError(t, err)
	assert.Equal(t, 2, refs[0].Sequences)
}

func TestCheckReferencesUsesFaidx(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "genome.fa")
	writeFile(t, ref, tinyFasta)
	writeFile(t, ref+".fai", "chr1\t1000\t6\t60\t61\nchr2\t500\t1100\t60\t61\n")

	refs, err := CheckReferences(ref)
	require.NoError(t, err)
	assert.True(t, refs[0].FromIndex)
	assert.Equal(t, int64(1500), refs[0].Length)
}

func TestConfirm(t *testing.T) {
	refs := []ReferenceInfo{{Path: "/ref/genome.fa", Sequences: 2, Length: 17}}
	for input, ok := range map[string]bool{
		"Y\n":   true,
		"y\n":   true,
		" y \n": true,
		"Y":     true,
		"":      false,
		"\n":    false,
		"n\n":   false,
		"yes\n": false,
		"N\n":   false,
		"YY\n":  false,
	} {
		var out bytes.Buffer
		err := Confirm(strings.NewReader(input), &out, refs)
		if ok {
			assert.NoError(t, err, "input %q", input)
		} else {
			assert.ErrorIs(t, err, ErrUserDeclined, "input %q", input)
		}
		assert.Contains(t, out.String(), "/ref/genome.fa")
	}
}
