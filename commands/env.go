package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/shell"
)

const (
	exportUse   = "export [-p] [NAME[=VALUE]...]"
	exportShort = "Set environment variables, list them with no arguments."
)

// Export sets variables in the session's environment.
func Export(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   exportUse,
		Short: exportShort,
	}
	opts := cmd.Flags()
	list := opts.Bool('p', "list the exported variables")

	return cmd.Run(s, args, func() int {
		if *list || len(opts.Args()) == 0 {
			for _, key := range s.Env.Keys() {
				fmt.Fprintf(s.Stdout, "export %s=%s\n", key, shell.QuoteWord(s.Env.Getenv(key)))
			}
			return 0
		}

		status := 0
		for _, arg := range opts.Args() {
			name, value, hasValue := strings.Cut(arg, "=")
			if !shell.IsValidName(name) {
				fmt.Fprintf(s.Stderr, "export: `%s': not a valid identifier\n", arg)
				status = process.StatusFailure
				continue
			}
			if !hasValue {
				// Every variable of the session is exported.
				if _, ok := s.Env.LookupEnv(name); ok {
					continue
				}
			}
			s.Env.Setenv(name, value)
		}
		return status
	})
}

// Unset removes variables from the session's environment.
func Unset(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "unset NAME...",
		Short: "Remove environment variables.",
	}

	return cmd.RunEachArg(s, args, func(name string) error {
		if !shell.IsValidName(name) {
			return fmt.Errorf("`%s': not a valid identifier", name)
		}
		s.Env.Unsetenv(name)
		return nil
	})
}

// Env prints the environment, with arguments it runs the external env.
func Env(s *Shell, args []string) int {
	if len(args) > 0 {
		return s.RunExternal(append([]string{"env"}, args...))
	}

	for _, kv := range s.Env.Environ() {
		fmt.Fprintln(s.Stdout, kv)
	}
	return 0
}

var (
	_ BuiltinFunc = Export
	_ BuiltinFunc = Unset
	_ BuiltinFunc = Env
)

func init() {
	addBuiltin("export", exportUse, exportShort, Export)
	addBuiltin("unset", "unset NAME...", "Remove environment variables.", Unset)
	addBuiltin("env", "env [COMMAND [ARG...]]", "Print the environment, or run an external command.", Env)
}
