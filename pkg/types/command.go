package types

import "strings"

// CommandSpec is a single external program invocation.
type CommandSpec struct {
	Program string
	Args    []string
	// Dir overrides the working directory when not empty.
	Dir string
}

// Argv returns the full argument vector including the program name.
func (c CommandSpec) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

func (c CommandSpec) String() string {
	return strings.Join(c.Argv(), " ")
}

// IsZero reports whether no program was set.
func (c CommandSpec) IsZero() bool {
	return c.Program == ""
}
