// Package pipeline runs the read-to-variant workflow: a static, ordered list
// of stage definitions interpreted once for the reference genomes and once per
// sample. Each stage names the slots it reads, the slots it writes and how
// each output file name is derived from an input file name.
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

type Cardinality int

const (
	PerSample Cardinality = iota
	Global
)

func (c Cardinality) String() string {
	if c == Global {
		return "global"
	}
	return "per-sample"
}

// Slots every stage table starts from.
const (
	SlotRef    = "ref"
	SlotRefAlt = "ref_alt"
	SlotR1     = "r1"
	SlotR2     = "r2"
)

// BuiltinFunc is a stage implemented in-process. inputs maps slot to the
// final path of each input, outputs maps slot to the path the stage must
// write (a temporary name that is renamed on success).
type BuiltinFunc func(ctx context.Context, inputs, outputs map[string]string) error

// Output declares one file a stage writes: Slot is its name, derived by Rule
// from the file currently held in slot From.
type Output struct {
	Slot string
	From string
	Rule Rule
}

type StageDefinition struct {
	Name        string
	Description string
	Cardinality Cardinality
	Inputs      []string
	Outputs     []Output
	// Command is a template; {{slot}} tags expand to shell-quoted paths and
	// configured values. Exactly one of Command and Builtin is set.
	Command string
	Builtin BuiltinFunc
	// InPlace stages write their outputs themselves next to the input (index
	// files), so they are not staged under a temporary name.
	InPlace bool
}

// ValidateStages checks that the table is internally consistent: unique
// names, every input produced by an earlier stage or present from the start,
// and global stages touching global slots only.
func ValidateStages(stages []StageDefinition) error {
	globals := map[string]bool{SlotRef: true, SlotRefAlt: true}
	samples := map[string]bool{SlotR1: true, SlotR2: true}
	names := make(map[string]bool)

	for _, st := range stages {
		if st.Name == "" {
			return errors.New("stage without a name")
		}
		if names[st.Name] {
			return fmt.Errorf("stage %s defined twice", st.Name)
		}
		names[st.Name] = true

		if (st.Command == "") == (st.Builtin == nil) {
			return fmt.Errorf("stage %s: exactly one of command or builtin must be set", st.Name)
		}
		if len(st.Outputs) == 0 {
			return fmt.Errorf("stage %s declares no outputs", st.Name)
		}

		known := func(slot string) bool {
			if st.Cardinality == Global {
				return globals[slot]
			}
			return samples[slot] || globals[slot]
		}
		for _, in := range st.Inputs {
			if !known(in) {
				return fmt.Errorf("stage %s: input %q is not produced by an earlier stage", st.Name, in)
			}
		}
		for _, out := range st.Outputs {
			if !known(out.From) {
				return fmt.Errorf("stage %s: output %q derives from unknown slot %q", st.Name, out.Slot, out.From)
			}
			if globals[out.Slot] || samples[out.Slot] {
				return fmt.Errorf("stage %s: slot %q is already written by another stage", st.Name, out.Slot)
			}
		}
		for _, out := range st.Outputs {
			if st.Cardinality == Global {
				globals[out.Slot] = true
			} else {
				samples[out.Slot] = true
			}
		}
	}
	return nil
}
