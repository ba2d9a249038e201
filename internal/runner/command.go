package runner

import (
	"strings"
)

// CommandSpec describes one external invocation. It is built fresh for every
// call and never persisted.
type CommandSpec struct {
	Executable string
	Args       []string
	WorkingDir string
	// LogFilePath receives stderr, and stdout unless StdoutPath is set.
	LogFilePath string
	// StdoutPath optionally separates stdout from the log file.
	StdoutPath string
}

// Argv returns the executable followed by its arguments.
func (c CommandSpec) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Executable)
	return append(argv, c.Args...)
}

// String renders the full command line for logs and error messages.
func (c CommandSpec) String() string {
	parts := c.Argv()
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, " \t\"'") {
			parts[i] = quote(part)
		}
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// SplitArgs splits a free-form argument string on whitespace.
func SplitArgs(extra string) []string {
	return strings.Fields(extra)
}
