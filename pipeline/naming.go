package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

type RuleKind string

const (
	// RuleSuffix trims Old from the end of the name and appends New. An empty
	// Old appends New unconditionally.
	RuleSuffix RuleKind = "suffix"
	// RuleInfix replaces the first occurrence of Old with New, like the shell's
	// ${name/Old/New}.
	RuleInfix RuleKind = "infix"
	// RuleExt replaces the final extension (".fa", ".fasta") with New.
	RuleExt RuleKind = "ext"
)

// Rule derives the file name of a stage output from the name of one of its
// inputs. Rules work on base names only; directories are never rewritten.
type Rule struct {
	Kind RuleKind
	Old  string
	New  string
}

func Suffix(old, new string) Rule { return Rule{Kind: RuleSuffix, Old: old, New: new} }
func Append(suffix string) Rule   { return Rule{Kind: RuleSuffix, New: suffix} }
func Infix(old, new string) Rule  { return Rule{Kind: RuleInfix, Old: old, New: new} }
func Ext(new string) Rule         { return Rule{Kind: RuleExt, New: new} }

// Apply returns the derived base name. It fails rather than guess when the
// name does not carry the substring the rule expects, so a renamed input can
// never silently produce an output that downstream globs will miss.
func (r Rule) Apply(name string) (string, error) {
	switch r.Kind {
	case RuleSuffix:
		if !strings.HasSuffix(name, r.Old) {
			return "", fmt.Errorf("%q does not end in %q", name, r.Old)
		}
		stem := strings.TrimSuffix(name, r.Old)
		if stem == "" {
			return "", fmt.Errorf("%q: nothing left after removing %q", name, r.Old)
		}
		if r.Old == r.New {
			return "", fmt.Errorf("%q: rule %s would not produce a new name", name, r)
		}
		return stem + r.New, nil
	case RuleInfix:
		if r.Old == "" || !strings.Contains(name, r.Old) {
			return "", fmt.Errorf("%q does not contain %q", name, r.Old)
		}
		return strings.Replace(name, r.Old, r.New, 1), nil
	case RuleExt:
		ext := filepath.Ext(name)
		if ext == "" || ext == name {
			return "", fmt.Errorf("%q has no extension", name)
		}
		return strings.TrimSuffix(name, ext) + r.New, nil
	default:
		return "", fmt.Errorf("unknown naming rule kind %q", r.Kind)
	}
}

// ApplyPath applies the rule to the base name of path and keeps its directory.
func (r Rule) ApplyPath(path string) (string, error) {
	name, err := r.Apply(filepath.Base(path))
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), name), nil
}

func (r Rule) String() string {
	switch r.Kind {
	case RuleSuffix:
		if r.Old == "" {
			return fmt.Sprintf("+%s", r.New)
		}
		return fmt.Sprintf("%s -> %s", r.Old, r.New)
	case RuleInfix:
		return fmt.Sprintf("%s => %s", r.Old, r.New)
	case RuleExt:
		return fmt.Sprintf("*.ext -> %s", r.New)
	}
	return string(r.Kind)
}
