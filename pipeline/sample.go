package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sample is one read pair and every file derived from it, keyed by slot.
type Sample struct {
	Name      string
	Artifacts map[string]string
}

func (s Sample) R1() string { return s.Artifacts[SlotR1] }
func (s Sample) R2() string { return s.Artifacts[SlotR2] }

type DiscoverOptions struct {
	// Pattern matches first-of-pair files, e.g. "*R1*.fastq.gz".
	Pattern string
	// Exclude patterns are matched against base names and drop files the
	// pipeline itself wrote (trimmed reads also match Pattern).
	Exclude   []string
	PairToken string
	MateToken string
}

// MateName derives the second-of-pair file name by replacing the first
// occurrence of the pair token. A name containing the token earlier than the
// pair designator (e.g. "R1" in the sample name) is rewritten there.
func MateName(r1, pairToken, mateToken string) (string, error) {
	return Infix(pairToken, mateToken).ApplyPath(r1)
}

// SampleName is the R1 base name up to the pair token, without trailing
// separators; if that leaves nothing, the name minus ".fastq.gz".
func SampleName(r1, pairToken string) string {
	base := filepath.Base(r1)
	if i := strings.Index(base, pairToken); i > 0 {
		if name := strings.TrimRight(base[:i], "_.-"); name != "" {
			return name
		}
	}
	return strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), ".fastq")
}

// DiscoverSamples globs dir for first-of-pair reads and pairs each with its
// mate. Samples come back sorted by R1 path. Pairs whose mate is missing, or
// whose name collides with an earlier sample, are returned as failed outcomes
// instead of aborting discovery.
func DiscoverSamples(dir string, opts DiscoverOptions) ([]Sample, []SampleOutcome, error) {
	matches, err := filepath.Glob(filepath.Join(dir, opts.Pattern))
	if err != nil {
		return nil, nil, fmt.Errorf("read pattern %q: %w", opts.Pattern, err)
	}
	sort.Strings(matches)

	var (
		samples []Sample
		skipped []SampleOutcome
		seen    = make(map[string]string)
	)
	for _, r1 := range matches {
		excluded, err := matchesAny(filepath.Base(r1), opts.Exclude)
		if err != nil {
			return nil, nil, err
		}
		if excluded {
			continue
		}
		if info, err := os.Stat(r1); err != nil || info.IsDir() {
			continue
		}

		name := SampleName(r1, opts.PairToken)
		r2, err := MateName(r1, opts.PairToken, opts.MateToken)
		if err != nil {
			skipped = append(skipped, failedDiscovery(name, fmt.Errorf("%w: %s: %v", ErrMissingPairedFile, r1, err)))
			continue
		}
		if _, err := os.Stat(r2); err != nil {
			skipped = append(skipped, failedDiscovery(name, fmt.Errorf("%w: %s has no mate %s", ErrMissingPairedFile, filepath.Base(r1), filepath.Base(r2))))
			continue
		}
		if prev, dup := seen[name]; dup {
			skipped = append(skipped, failedDiscovery(name, fmt.Errorf("%w: %s and %s both map to %q", ErrDuplicateSample, filepath.Base(prev), filepath.Base(r1), name)))
			continue
		}
		seen[name] = r1

		samples = append(samples, Sample{
			Name:      name,
			Artifacts: map[string]string{SlotR1: r1, SlotR2: r2},
		})
	}
	return samples, skipped, nil
}

func matchesAny(name string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := filepath.Match(p, name)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func failedDiscovery(name string, err error) SampleOutcome {
	return SampleOutcome{
		Sample:      name,
		Status:      StatusFailed,
		FailedStage: "discover",
		Err:         err,
	}
}
