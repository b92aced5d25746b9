package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/env"
	"github.com/josephlewis42/pipesh/core/process"
)

// Cd changes the session's working directory.
func Cd(s *Shell, args []string) int {
	var target string
	printDir := false
	switch len(args) {
	case 0:
		target = s.Env.Getenv(env.Home)
		if target == "" {
			fmt.Fprintln(s.Stderr, "cd: HOME not set")
			return process.StatusFailure
		}
	case 1:
		target = args[0]
		if target == "-" {
			target = s.PreviousDir()
			if target == "" {
				fmt.Fprintln(s.Stderr, "cd: OLDPWD not set")
				return process.StatusFailure
			}
			printDir = true
		}
	default:
		fmt.Fprintln(s.Stderr, "cd: too many arguments")
		return process.StatusFailure
	}

	if err := s.Chdir(target); err != nil {
		fmt.Fprintf(s.Stderr, "cd: %v\n", err)
		return process.StatusFailure
	}
	if printDir {
		fmt.Fprintln(s.Stdout, s.Getwd())
	}
	return 0
}

var _ BuiltinFunc = Cd

func init() {
	addBuiltin("cd", "cd [DIR|-]", "Change the working directory, $HOME by default.", Cd)
}
