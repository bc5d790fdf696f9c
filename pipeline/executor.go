package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gmaffy/whisper-pipe/utils"
)

// TempPrefix marks files a stage is still writing. They are renamed to their
// final name only after the stage succeeded.
const TempPrefix = ".part."

// CommandRunner runs one rendered shell command line. *utils.BashRunner is the
// production implementation.
type CommandRunner interface {
	Run(ctx context.Context, dir, cmdStr string) (*utils.CmdResult, error)
}

// Runner interprets a stage table against references and samples.
type Runner struct {
	Stages  []StageDefinition
	Exec    CommandRunner
	Logger  *slog.Logger
	WorkDir string
	// Jobs bounds how many samples are processed at the same time.
	Jobs int
	// Vars are extra template values (threads, tool paths, ...).
	Vars map[string]string
	// Resume skips stages whose outputs are valid and journalled.
	Resume  bool
	Journal []utils.LogEntry
	RunID   string
	// Validate checks a file left by an earlier run; ValidArtifact if nil.
	Validate func(path string) error
}

// sampleState is owned by a single goroutine at a time.
type sampleState struct {
	sample     Sample
	artifacts  map[string]string
	resumeFrom int
	outcome    SampleOutcome
	done       bool
	// cleared counts the per-sample stages finished or skipped as done.
	cleared int
}

// Run executes every stage. Global stages run once, in table order, as
// barriers between runs of per-sample stages; per-sample stages run for up to
// Jobs samples concurrently, each sample strictly in order. A sample that
// fails a stage is dropped from later stages while the others continue. The
// returned error is non-nil for global stage failures and cancellation; the
// RunResult is always populated.
func (r *Runner) Run(ctx context.Context, refs map[string]string, samples []Sample) (*RunResult, error) {
	if err := ValidateStages(r.Stages); err != nil {
		return nil, err
	}
	logger := r.logger()
	result := &RunResult{RunID: r.RunID}

	globals, err := r.planGlobals(refs)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrGlobalStage, err)
	}

	states := make([]*sampleState, 0, len(samples))
	for _, s := range samples {
		st := r.planSample(s, globals)
		if !st.done {
			st.resumeFrom = r.resumePoint(st)
			if st.resumeFrom > 0 {
				logger.Info("resuming sample", "sample", s.Name, "after", r.Stages[st.resumeFrom-1].Name)
			}
		}
		states = append(states, st)
	}

	perSample := 0
	for _, stage := range r.Stages {
		if stage.Cardinality == PerSample {
			perSample++
		}
	}

	// finish settles every sample still in flight. Samples that already went
	// through all their stages succeeded whatever stopped the run.
	finish := func(status Status, cause error) {
		for _, st := range states {
			if !st.done && st.cleared == perSample {
				st.outcome.Status = StatusSucceeded
				st.done = true
			}
			if !st.done {
				st.outcome.Status = status
				st.outcome.Err = cause
				st.done = true
			}
		}
		result.Outcomes = make([]SampleOutcome, len(states))
		for i, st := range states {
			st.outcome.Artifacts = st.artifacts
			result.Outcomes[i] = st.outcome
		}
	}

	for start := 0; start < len(r.Stages); {
		if err := ctx.Err(); err != nil {
			finish(StatusCancelled, err)
			return result, err
		}

		stage := r.Stages[start]
		if stage.Cardinality == Global {
			res := r.runGlobal(ctx, stage, globals)
			result.Globals = append(result.Globals, res)
			if res.Err != nil {
				if ctx.Err() != nil {
					finish(StatusCancelled, ctx.Err())
					return result, ctx.Err()
				}
				finish(StatusNotRun, res.Err)
				return result, fmt.Errorf("%w: %w", ErrGlobalStage, res.Err)
			}
			start++
			continue
		}

		end := start
		for end < len(r.Stages) && r.Stages[end].Cardinality == PerSample {
			end++
		}
		r.runSegment(ctx, states, start, end, globals)
		start = end
	}

	if err := ctx.Err(); err != nil {
		finish(StatusCancelled, err)
		return result, err
	}
	finish(StatusSucceeded, nil)
	return result, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) validate(path string) error {
	if r.Validate != nil {
		return r.Validate(path)
	}
	return ValidArtifact(path)
}

// planGlobals names every file the global stages will produce.
func (r *Runner) planGlobals(refs map[string]string) (map[string]string, error) {
	globals := maps.Clone(refs)
	if globals == nil {
		globals = make(map[string]string)
	}
	for _, st := range r.Stages {
		if st.Cardinality != Global {
			continue
		}
		if err := deriveOutputs(st, globals); err != nil {
			return nil, err
		}
	}
	return globals, nil
}

// planSample names every file the per-sample stages will produce. Naming is a
// pure function of the input names, so the whole chain is known before
// anything runs; a rule that does not fit marks the sample failed up front.
func (r *Runner) planSample(s Sample, globals map[string]string) *sampleState {
	st := &sampleState{
		sample:    s,
		artifacts: maps.Clone(s.Artifacts),
		outcome:   SampleOutcome{Sample: s.Name},
	}
	if st.artifacts == nil {
		st.artifacts = make(map[string]string)
	}
	for _, stage := range r.Stages {
		if stage.Cardinality == Global {
			continue
		}
		view := st.view(globals)
		if err := deriveOutputs(stage, view); err != nil {
			st.fail(stage.Name, err)
			return st
		}
		for _, o := range stage.Outputs {
			st.artifacts[o.Slot] = view[o.Slot]
		}
	}
	return st
}

func deriveOutputs(stage StageDefinition, artifacts map[string]string) error {
	for _, o := range stage.Outputs {
		from, ok := artifacts[o.From]
		if !ok || from == "" {
			return fmt.Errorf("%s: no file for slot %q", stage.Name, o.From)
		}
		path, err := o.Rule.ApplyPath(from)
		if err != nil {
			return fmt.Errorf("%s: output %s: %w", stage.Name, o.Slot, err)
		}
		artifacts[o.Slot] = path
	}
	return nil
}

// view merges the global slots under the sample's own.
func (st *sampleState) view(globals map[string]string) map[string]string {
	v := maps.Clone(globals)
	maps.Copy(v, st.artifacts)
	return v
}

func (st *sampleState) fail(stage string, err error) {
	st.outcome.Status = StatusFailed
	st.outcome.FailedStage = stage
	st.outcome.Err = err
	st.done = true
}

// resumePoint returns the index of the first stage the sample still needs:
// one past the furthest per-sample stage whose outputs are all present, valid
// and journalled as completed.
func (r *Runner) resumePoint(st *sampleState) int {
	if !r.Resume {
		return 0
	}
	for i := len(r.Stages) - 1; i >= 0; i-- {
		stage := r.Stages[i]
		if stage.Cardinality == Global {
			continue
		}
		if !utils.StageHasCompleted(r.Journal, stage.Name, st.sample.Name) {
			continue
		}
		if r.outputsValid(stage, st.artifacts) {
			return i + 1
		}
	}
	return 0
}

func (r *Runner) outputsValid(stage StageDefinition, artifacts map[string]string) bool {
	for _, o := range stage.Outputs {
		if err := r.validate(artifacts[o.Slot]); err != nil {
			return false
		}
	}
	return true
}

func (r *Runner) runSegment(ctx context.Context, states []*sampleState, start, end int, globals map[string]string) {
	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}
	var g errgroup.Group
	g.SetLimit(jobs)
	for _, st := range states {
		if st.done {
			continue
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					st.outcome.Status = StatusCancelled
					st.outcome.Err = err
					st.done = true
					return nil
				}
				res := r.runSampleStage(ctx, st, i, globals)
				st.outcome.Results = append(st.outcome.Results, res)
				if res.Err != nil {
					if ctx.Err() != nil {
						st.outcome.Status = StatusCancelled
						st.outcome.Err = ctx.Err()
						st.done = true
					} else {
						st.fail(res.Stage, res.Err)
					}
					return nil
				}
				st.cleared++
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) journal(level slog.Level, stage, sample, status, cmd string, attrs ...any) {
	args := []any{
		utils.KeyProgram, stage,
		utils.KeySample, sample,
		utils.KeyStatus, status,
		utils.KeyCmd, cmd,
		utils.KeyRun, r.RunID,
	}
	r.logger().Log(context.Background(), level, utils.JournalMsg, append(args, attrs...)...)
}

func (r *Runner) runGlobal(ctx context.Context, stage StageDefinition, globals map[string]string) Result {
	res := Result{Stage: stage.Name}
	outputs := make(map[string]string, len(stage.Outputs))
	for _, o := range stage.Outputs {
		outputs[o.Slot] = globals[o.Slot]
	}

	if r.Resume && r.allExist(outputs) {
		res.Skipped = true
		r.journal(slog.LevelInfo, stage.Name, "", utils.StatusSkipped, "", "reason", "outputs present")
		return res
	}
	return r.invoke(ctx, stage, "", globals, outputs, res)
}

func (r *Runner) allExist(paths map[string]string) bool {
	for _, p := range paths {
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

func (r *Runner) runSampleStage(ctx context.Context, st *sampleState, idx int, globals map[string]string) Result {
	stage := r.Stages[idx]
	res := Result{Stage: stage.Name, Sample: st.sample.Name}
	if idx < st.resumeFrom {
		res.Skipped = true
		r.journal(slog.LevelInfo, stage.Name, st.sample.Name, utils.StatusSkipped, "", "reason", "resumed")
		return res
	}

	view := st.view(globals)
	view["sample"] = st.sample.Name
	outputs := make(map[string]string, len(stage.Outputs))
	for _, o := range stage.Outputs {
		outputs[o.Slot] = view[o.Slot]
	}
	return r.invoke(ctx, stage, st.sample.Name, view, outputs, res)
}

// invoke runs one stage: inputs are checked, outputs written under temporary
// names (unless the stage works in place), verified and renamed.
func (r *Runner) invoke(ctx context.Context, stage StageDefinition, sample string, artifacts, outputs map[string]string, res Result) Result {
	logger := r.logger().With("stage", stage.Name)
	if sample != "" {
		logger = logger.With("sample", sample)
	}
	failed := func(err error) Result {
		res.Err = err
		r.journal(slog.LevelError, stage.Name, sample, utils.StatusFailed, res.Command, "error", err)
		return res
	}

	inputs := make(map[string]string, len(stage.Inputs))
	for _, slot := range stage.Inputs {
		path := artifacts[slot]
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return failed(fmt.Errorf("%s: %w: %s (%s)", stage.Name, ErrInputMissing, slot, path))
		}
		inputs[slot] = path
	}

	writeTo := maps.Clone(outputs)
	if !stage.InPlace {
		for slot, final := range outputs {
			writeTo[slot] = tempName(final)
			_ = os.Remove(writeTo[slot])
		}
	}
	cleanup := func() {
		if stage.InPlace {
			return
		}
		for _, tmp := range writeTo {
			_ = os.Remove(tmp)
		}
	}

	values := make(map[string]string, len(r.Vars)+len(artifacts)+len(writeTo))
	maps.Copy(values, r.Vars)
	maps.Copy(values, artifacts)
	maps.Copy(values, writeTo)

	started := time.Now()
	if stage.Builtin != nil {
		r.journal(slog.LevelInfo, stage.Name, sample, utils.StatusStarted, "builtin")
		res.Command = "builtin"
		err := stage.Builtin(ctx, inputs, writeTo)
		res.Duration = time.Since(started)
		if err != nil {
			cleanup()
			return failed(fmt.Errorf("%s: %w", stage.Name, err))
		}
	} else {
		cmd, err := RenderCommand(stage.Command, values)
		if err != nil {
			return failed(fmt.Errorf("%s: %w", stage.Name, err))
		}
		res.Command = cmd
		r.journal(slog.LevelInfo, stage.Name, sample, utils.StatusStarted, cmd)

		out, err := r.Exec.Run(ctx, r.WorkDir, cmd)
		res.Duration = time.Since(started)
		if err != nil {
			cleanup()
			return failed(fmt.Errorf("%s: %w", stage.Name, err))
		}
		res.ExitCode = out.ExitCode
		res.Stderr = out.Stderr
		if out.Failed() {
			cleanup()
			return failed(&ToolError{
				Stage:    stage.Name,
				Sample:   sample,
				ExitCode: out.ExitCode,
				TimedOut: out.TimedOut,
				Stderr:   out.Stderr,
			})
		}
	}

	var missing []string
	for slot, p := range writeTo {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", slot, outputs[slot]))
		}
	}
	if len(missing) > 0 {
		cleanup()
		return failed(fmt.Errorf("%s: %w: %v", stage.Name, ErrOutputMissing, missing))
	}

	if !stage.InPlace {
		for slot, tmp := range writeTo {
			if err := os.Rename(tmp, outputs[slot]); err != nil {
				cleanup()
				return failed(fmt.Errorf("%s: %w", stage.Name, err))
			}
		}
	}

	r.journal(slog.LevelInfo, stage.Name, sample, utils.StatusCompleted, res.Command, "duration", res.Duration.Round(time.Millisecond).String())
	logger.Debug("stage finished", "duration", res.Duration)
	return res
}

func tempName(final string) string {
	return filepath.Join(filepath.Dir(final), TempPrefix+filepath.Base(final))
}

// Progress reports, per sample, the stages a new run would skip when resuming.
type Progress struct {
	Sample string
	Done   []string
	Next   string
	Err    error
}

// Progress plans the run without executing anything.
func (r *Runner) Progress(refs map[string]string, samples []Sample) ([]Progress, error) {
	if err := ValidateStages(r.Stages); err != nil {
		return nil, err
	}
	globals, err := r.planGlobals(refs)
	if err != nil {
		return nil, err
	}
	var out []Progress
	for _, s := range samples {
		st := r.planSample(s, globals)
		p := Progress{Sample: s.Name}
		if st.done {
			p.Err = st.outcome.Err
			out = append(out, p)
			continue
		}
		from := r.resumePoint(st)
		for i, stage := range r.Stages {
			if stage.Cardinality == Global {
				continue
			}
			if i < from {
				p.Done = append(p.Done, stage.Name)
			} else if p.Next == "" {
				p.Next = stage.Name
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// IsCancelled reports whether err stems from context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
