package variants

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Column positions of FORMAT and the first sample in a VCF record.
const (
	formatCol = 8
	sampleCol = 9
)

var errNoDepth = errors.New("DP is zero")

// FreqStats counts what AlleleFrequencies did with its input.
type FreqStats struct {
	Written int
	Skipped int
}

// AlleleFrequency returns the alternative allele frequency, in percent, of a
// single-sample record: 100 * AD[alt] / DP. AD must hold exactly ref,alt.
func AlleleFrequency(fields []string) (float64, error) {
	if len(fields) <= sampleCol {
		return 0, fmt.Errorf("need at least %d columns, got %d", sampleCol+1, len(fields))
	}
	keys := strings.Split(fields[formatCol], ":")
	values := strings.Split(fields[sampleCol], ":")

	adIndex, dpIndex := indexOf(keys, "AD"), indexOf(keys, "DP")
	if adIndex < 0 || dpIndex < 0 {
		return 0, errors.New("FORMAT has no AD or DP")
	}
	if adIndex >= len(values) || dpIndex >= len(values) {
		return 0, errors.New("sample column is shorter than FORMAT")
	}

	ad := strings.Split(values[adIndex], ",")
	if len(ad) != 2 {
		return 0, fmt.Errorf("AD %q is not ref,alt", values[adIndex])
	}
	if _, err := strconv.Atoi(ad[0]); err != nil {
		return 0, fmt.Errorf("AD ref: %w", err)
	}
	alt, err := strconv.Atoi(ad[1])
	if err != nil {
		return 0, fmt.Errorf("AD alt: %w", err)
	}
	depth, err := strconv.Atoi(values[dpIndex])
	if err != nil {
		return 0, fmt.Errorf("DP: %w", err)
	}
	if depth == 0 {
		return 0, errNoDepth
	}
	return 100 * float64(alt) / float64(depth), nil
}

func indexOf(s []string, v string) int {
	for i := range s {
		if s[i] == v {
			return i
		}
	}
	return -1
}

// AlleleFrequencies copies every record of r to w with its alternative allele
// frequency appended as an extra "NN.NN%" column. Header lines are dropped;
// records that cannot be parsed are logged and skipped.
func AlleleFrequencies(r io.Reader, w io.Writer, logger *slog.Logger) (FreqStats, error) {
	var stats FreqStats
	bw := bufio.NewWriter(w)
	sc := newLineScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		freq, err := AlleleFrequency(strings.Split(line, "\t"))
		if err != nil {
			stats.Skipped++
			logger.Warn("skipping line", "error", err, "line", line)
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s\t%.2f%%\n", line, freq); err != nil {
			return stats, err
		}
		stats.Written++
	}
	if err := sc.Err(); err != nil {
		return stats, err
	}
	return stats, bw.Flush()
}

// AlleleFrequencyFile runs AlleleFrequencies from in to out.
func AlleleFrequencyFile(in, out string, logger *slog.Logger) (stats FreqStats, err error) {
	src, err := os.Open(in)
	if err != nil {
		return stats, err
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cErr := dst.Close(); err == nil {
			err = cErr
		}
	}()
	return AlleleFrequencies(src, dst, logger.With("file", in))
}

// FreqName is the output name for a table: "x.tab" becomes "x_freq.tab".
func FreqName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_freq.tab"
}

// AlleleFrequencyDir processes every *.tab in dir, leaving earlier *_freq.tab
// outputs alone, and returns the input files it wrote a table for. A table
// with no usable record (such as a CHROM/POS table) produces no output, so an
// existing <name>_freq.tab is never replaced by an empty one.
func AlleleFrequencyDir(dir string, logger *slog.Logger) ([]string, error) {
	tabs, err := filepath.Glob(filepath.Join(dir, "*.tab"))
	if err != nil {
		return nil, err
	}
	sort.Strings(tabs)

	var done []string
	for _, tab := range tabs {
		if strings.HasSuffix(tab, "_freq.tab") {
			continue
		}
		out := FreqName(tab)
		tmp := filepath.Join(filepath.Dir(out), ".part."+filepath.Base(out))
		stats, err := AlleleFrequencyFile(tab, tmp, logger)
		if err != nil {
			_ = os.Remove(tmp)
			return done, fmt.Errorf("%s: %w", tab, err)
		}
		if stats.Written == 0 {
			_ = os.Remove(tmp)
			logger.Warn("no records with AD and DP, output left untouched", "input", tab, "output", out, "skipped", stats.Skipped)
			continue
		}
		if err := os.Rename(tmp, out); err != nil {
			_ = os.Remove(tmp)
			return done, err
		}
		logger.Info("allele frequencies written", "input", tab, "output", out, "records", stats.Written, "skipped", stats.Skipped)
		done = append(done, tab)
	}
	return done, nil
}
