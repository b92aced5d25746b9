package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/shell"
)

const (
	aliasUse   = "alias [-p] [NAME[=VALUE]...]"
	aliasShort = "Define or display aliases."
)

func printAlias(s *Shell, name string) bool {
	definition, ok := s.Aliases.Definition(name)
	if ok {
		fmt.Fprintf(s.Stdout, "alias %s=%s\n", name, shell.QuoteWord(definition))
	}
	return ok
}

// Alias defines aliases from NAME=VALUE arguments and prints the others.
func Alias(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   aliasUse,
		Short: aliasShort,
	}
	opts := cmd.Flags()
	list := opts.Bool('p', "list all aliases")

	return cmd.Run(s, args, func() int {
		if *list || len(opts.Args()) == 0 {
			for _, name := range s.Aliases.Names() {
				printAlias(s, name)
			}
			if len(opts.Args()) == 0 {
				return 0
			}
		}

		status := 0
		for _, arg := range opts.Args() {
			name, definition, define := strings.Cut(arg, "=")
			switch {
			case define:
				if err := s.Aliases.Define(name, definition); err != nil {
					fmt.Fprintf(s.Stderr, "alias: %v\n", err)
					status = process.StatusFailure
				}
			case !printAlias(s, name):
				fmt.Fprintf(s.Stderr, "alias: %s: not found\n", name)
				status = process.StatusFailure
			}
		}
		return status
	})
}

// Unalias removes aliases.
func Unalias(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "unalias [-a] NAME...",
		Short: "Remove aliases.",
	}
	opts := cmd.Flags()
	all := opts.Bool('a', "remove all aliases")

	return cmd.Run(s, args, func() int {
		if *all {
			s.Aliases.Clear()
			return 0
		}
		if len(opts.Args()) == 0 {
			fmt.Fprintln(s.Stderr, "unalias: usage: unalias [-a] NAME...")
			return process.StatusUsage
		}

		status := 0
		for _, name := range opts.Args() {
			if !s.Aliases.Remove(name) {
				fmt.Fprintf(s.Stderr, "unalias: %s: not found\n", name)
				status = process.StatusFailure
			}
		}
		return status
	})
}

var (
	_ BuiltinFunc = Alias
	_ BuiltinFunc = Unalias
)

func init() {
	addBuiltin("alias", aliasUse, aliasShort, Alias)
	addBuiltin("unalias", "unalias [-a] NAME...", "Remove aliases.", Unalias)
}
