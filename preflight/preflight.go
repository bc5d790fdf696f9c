// Package preflight holds the checks that run before any external tool is
// started: the reference genomes must be present and readable, and the
// operator must confirm the run.
package preflight

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/klauspost/compress/gzip"
)

var (
	ErrMissingReference = errors.New("missing reference file")
	ErrInvalidReference = errors.New("invalid reference file")
)

// MissingReferenceError names every reference path that was not found.
type MissingReferenceError struct {
	Paths []string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingReference, strings.Join(e.Paths, ", "))
}

func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }

// ReferenceInfo describes one reference genome file.
type ReferenceInfo struct {
	Path      string
	Sequences int
	Length    int64
	FromIndex bool // counts were taken from an adjacent .fai
}

// CheckReferences verifies that every path exists and holds at least one FASTA
// record. Missing files are all reported together before anything is parsed.
func CheckReferences(paths ...string) ([]ReferenceInfo, error) {
	var missing []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingReferenceError{Paths: missing}
	}

	refs := make([]ReferenceInfo, 0, len(paths))
	for _, p := range paths {
		info, err := inspectReference(p)
		if err != nil {
			return nil, err
		}
		refs = append(refs, info)
	}
	return refs, nil
}

func inspectReference(path string) (ReferenceInfo, error) {
	if info, ok := readFaidx(path + ".fai"); ok {
		info.Path = path
		return info, nil
	}

	fna, err := os.Open(path)
	if err != nil {
		return ReferenceInfo{}, err
	}
	defer fna.Close()

	var reader io.Reader = bufio.NewReader(fna)
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return ReferenceInfo{}, fmt.Errorf("%w: %s: %v", ErrInvalidReference, path, err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	info := ReferenceInfo{Path: path}
	sc := seqio.NewScanner(fasta.NewReader(reader, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		info.Sequences++
		info.Length += int64(sc.Seq().Len())
	}
	if err := sc.Error(); err != nil {
		return ReferenceInfo{}, fmt.Errorf("%w: %s: %v", ErrInvalidReference, path, err)
	}
	if info.Sequences == 0 {
		return ReferenceInfo{}, fmt.Errorf("%w: %s: no FASTA records", ErrInvalidReference, path)
	}
	return info, nil
}

// readFaidx sums a samtools .fai index. Any problem with the index just means
// the FASTA itself gets scanned.
func readFaidx(path string) (ReferenceInfo, bool) {
	f, err := os.Open(path)
	if err != nil {
		return ReferenceInfo{}, false
	}
	defer f.Close()

	var info ReferenceInfo
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			return ReferenceInfo{}, false
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return ReferenceInfo{}, false
		}
		info.Sequences++
		info.Length += n
	}
	if scanner.Err() != nil || info.Sequences == 0 {
		return ReferenceInfo{}, false
	}
	info.FromIndex = true
	return info, true
}
