package utils

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrMissingDependency = errors.New("missing dependency")

// CheckDeps verifies every tool is an executable on PATH (or an existing
// executable path). All missing tools are reported at once.
func CheckDeps(tools []string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not found in PATH", ErrMissingDependency, strings.Join(missing, ", "))
	}
	return nil
}
