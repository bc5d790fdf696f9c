package pipeline

import (
	"time"

	"github.com/samber/lo"
)

// Result is the record of one stage invocation (or skip) for one sample, or
// for the references when Sample is empty.
type Result struct {
	Stage    string
	Sample   string
	Command  string
	ExitCode int
	Stderr   string
	Duration time.Duration
	Skipped  bool
	Err      error
}

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusNotRun    Status = "not-run"
)

// SampleOutcome aggregates everything that happened to one sample.
type SampleOutcome struct {
	Sample      string
	Status      Status
	FailedStage string
	Err         error
	Results     []Result
	Artifacts   map[string]string
}

// LastStage returns the last stage that completed or was skipped as already
// done, or "" if none did.
func (o SampleOutcome) LastStage() string {
	for i := len(o.Results) - 1; i >= 0; i-- {
		if o.Results[i].Err == nil {
			return o.Results[i].Stage
		}
	}
	return ""
}

type RunResult struct {
	RunID    string
	Globals  []Result
	Outcomes []SampleOutcome
}

func (r *RunResult) Succeeded() []SampleOutcome {
	return lo.Filter(r.Outcomes, func(o SampleOutcome, _ int) bool { return o.Status == StatusSucceeded })
}

func (r *RunResult) Failed() []SampleOutcome {
	return lo.Filter(r.Outcomes, func(o SampleOutcome, _ int) bool { return o.Status != StatusSucceeded })
}

// OK reports whether every sample finished (zero samples is fine).
func (r *RunResult) OK() bool {
	return lo.EveryBy(r.Outcomes, func(o SampleOutcome) bool { return o.Status == StatusSucceeded })
}
