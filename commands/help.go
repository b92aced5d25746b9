package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/process"
)

// Help lists the builtins, or describes the named ones.
func Help(s *Shell, args []string) int {
	w := s.Stdout
	if len(args) == 0 {
		fmt.Fprintln(w, "pipesh builtin commands.")
		fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
		fmt.Fprintln(w, "Type `help name' to find out more about the command `name'.")
		fmt.Fprintln(w)

		for _, entry := range s.Builtins.Entries() {
			fmt.Fprintf(w, "  %-30s %s\n", entry.Use, entry.Short)
		}
		return 0
	}

	status := 0
	for _, name := range args {
		entry, ok := s.Builtins.Entry(name)
		if !ok {
			fmt.Fprintf(s.Stderr, "help: no help topics match `%s'.\n", name)
			status = process.StatusFailure
			continue
		}
		fmt.Fprintf(w, "%s: %s\n    %s\n", entry.Name, entry.Use, entry.Short)
	}
	return status
}

var _ BuiltinFunc = Help

func init() {
	addBuiltin("help", "help [NAME...]", "Describe the builtin commands.", Help)
}
