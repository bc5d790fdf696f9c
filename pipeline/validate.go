package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// ValidArtifact is the resume check for a file left by an earlier run. BAM
// files must carry a readable header and the BGZF end-of-file marker, gzip
// files a readable gzip header and at least one byte of content; anything
// else must merely be non-empty.
func ValidArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	switch {
	case strings.HasSuffix(path, ".bam"):
		return validBAM(path)
	case strings.HasSuffix(path, ".gz"):
		return validGzip(path)
	}
	return nil
}

func validBAM(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ok, err := bgzf.HasEOF(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%s: truncated BAM, no BGZF EOF block", path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	br, err := bam.NewReader(f, 1)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return br.Close()
}

func validGzip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer gz.Close()

	var b [1]byte
	if _, err := io.ReadFull(gz, b[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: no content", path)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
