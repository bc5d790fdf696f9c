package preflight

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrUserDeclined = errors.New("run not confirmed")

// Confirm shows the references the run will use and waits for a single "Y"
// or "y". Anything else, including an empty line or end of input, declines.
func Confirm(in io.Reader, out io.Writer, refs []ReferenceInfo) error {
	fmt.Fprintf(out, "\n---------------------------------- REFERENCES ----------------------------------\n\n")
	for _, ref := range refs {
		fmt.Fprintf(out, "%s\n\t%d sequences, %d bp\n", ref.Path, ref.Sequences, ref.Length)
	}
	fmt.Fprintf(out, "\nAlignment and variant calling are about to start with the references above.\n")
	fmt.Fprintf(out, "Proceed? [y/N]: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "Y" || answer == "y" {
		fmt.Fprintln(out)
		return nil
	}

	fmt.Fprintf(out, "\nAborting: answer %q is not Y. Check the reference paths (or pass --yes) and re-run.\n", answer)
	return ErrUserDeclined
}
