package commands

import (
	"fmt"
)

// Type describes how each argument would be run.
func Type(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "type NAME...",
		Short: "Describe how each NAME would be interpreted.",
	}

	return cmd.RunEachArg(s, args, func(name string) error {
		if definition, ok := s.Aliases.Definition(name); ok {
			fmt.Fprintf(s.Stdout, "%s is aliased to `%s'\n", name, definition)
			return nil
		}
		if _, ok := s.Builtins.Lookup(name); ok {
			fmt.Fprintf(s.Stdout, "%s is a shell builtin\n", name)
			return nil
		}
		path, err := s.LookPath(name)
		if err != nil {
			return fmt.Errorf("%s: not found", name)
		}
		fmt.Fprintf(s.Stdout, "%s is %s\n", name, path)
		return nil
	})
}

var _ BuiltinFunc = Type

func init() {
	addBuiltin("type", "type NAME...", "Describe how each NAME would be interpreted.", Type)
}
