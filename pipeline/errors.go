package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrToolFailure       = errors.New("external tool failed")
	ErrMissingPairedFile = errors.New("missing second-of-pair file")
	ErrDuplicateSample   = errors.New("duplicate sample name")
	ErrInputMissing      = errors.New("stage input missing")
	ErrOutputMissing     = errors.New("declared output not produced")
	ErrGlobalStage       = errors.New("reference stage failed")
)

// ToolError describes a failed external invocation.
type ToolError struct {
	Stage    string
	Sample   string
	ExitCode int
	TimedOut bool
	Stderr   string
}

func (e *ToolError) Error() string {
	who := e.Sample
	if who == "" {
		who = "reference"
	}
	if e.TimedOut {
		return fmt.Sprintf("%s [%s]: %v: timed out", e.Stage, who, ErrToolFailure)
	}
	return fmt.Sprintf("%s [%s]: %v: exit status %d", e.Stage, who, ErrToolFailure, e.ExitCode)
}

func (e *ToolError) Unwrap() error { return ErrToolFailure }
