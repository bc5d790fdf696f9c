package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// RenderCommand expands the {{name}} tags of tmpl from values. Every value is
// shell-quoted; a tag with no value is an error so that a misspelt slot never
// turns into an empty argument.
func RenderCommand(tmpl string, values map[string]string) (string, error) {
	t, err := fasttemplate.NewTemplate(tmpl, startTag, endTag)
	if err != nil {
		return "", fmt.Errorf("command template: %w", err)
	}
	return t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		v, ok := values[strings.TrimSpace(tag)]
		if !ok {
			return 0, fmt.Errorf("command template: unknown tag %q", tag)
		}
		return io.WriteString(w, ShellQuote(v))
	})
}

// TemplateTags lists the tag names used by tmpl, in order of appearance.
func TemplateTags(tmpl string) ([]string, error) {
	t, err := fasttemplate.NewTemplate(tmpl, startTag, endTag)
	if err != nil {
		return nil, err
	}
	var tags []string
	_, err = t.ExecuteFunc(io.Discard, func(w io.Writer, tag string) (int, error) {
		tags = append(tags, strings.TrimSpace(tag))
		return 0, nil
	})
	return tags, err
}

// ShellQuote returns s unchanged when it only holds characters that are safe
// in a bash word, and single-quoted otherwise.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool { return !safeShellRune(r) }) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func safeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_./:=,@%+-", r)
}
