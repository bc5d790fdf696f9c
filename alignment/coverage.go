package alignment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// CoverageSummary describes a `samtools depth -a` table for one sample.
type CoverageSummary struct {
	Positions int64
	Covered   int64
	Mean      float64
	Median    float64
	StdDev    float64
}

// Breadth is the fraction of positions with at least one read.
func (c CoverageSummary) Breadth() float64 {
	if c.Positions == 0 {
		return 0
	}
	return float64(c.Covered) / float64(c.Positions)
}

// SummarizeCoverage reads chrom/pos/depth lines and summarises the depth
// distribution. Depths are collected as a histogram, so memory does not grow
// with genome size.
func SummarizeCoverage(r io.Reader) (CoverageSummary, error) {
	hist := make(map[int]int64)
	var sum CoverageSummary

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return sum, fmt.Errorf("line %d: want chrom, pos and depth, got %d columns", line, len(fields))
		}
		depth, err := strconv.Atoi(fields[2])
		if err != nil {
			return sum, fmt.Errorf("line %d: depth: %w", line, err)
		}
		hist[depth]++
		sum.Positions++
		if depth > 0 {
			sum.Covered++
		}
	}
	if err := sc.Err(); err != nil {
		return sum, err
	}
	if sum.Positions == 0 {
		return sum, nil
	}

	depths := make([]float64, 0, len(hist))
	for d := range hist {
		depths = append(depths, float64(d))
	}
	sort.Float64s(depths)
	weights := make([]float64, len(depths))
	for i, d := range depths {
		weights[i] = float64(hist[int(d)])
	}

	sum.Mean = stat.Mean(depths, weights)
	sum.Median = stat.Quantile(0.5, stat.Empirical, depths, weights)
	if sum.Positions > 1 {
		sum.StdDev = stat.StdDev(depths, weights)
	}
	return sum, nil
}

// SummarizeCoverageFile summarises the depth table at path.
func SummarizeCoverageFile(path string) (CoverageSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return CoverageSummary{}, err
	}
	defer f.Close()

	sum, err := SummarizeCoverage(f)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}
