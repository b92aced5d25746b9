package commands

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/pipesh/core/process"
)

// Exit stops the shell once the current command finishes.
func Exit(s *Shell, args []string) int {
	switch len(args) {
	case 0:
		s.Exit(0)
		return 0
	case 1:
		code, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.Stderr, "exit: %s: numeric argument required\n", args[0])
			s.Exit(process.StatusUsage)
			return process.StatusUsage
		}
		code = int(uint8(code))
		s.Exit(code)
		return code
	default:
		fmt.Fprintln(s.Stderr, "exit: too many arguments")
		return process.StatusFailure
	}
}

var _ BuiltinFunc = Exit

func init() {
	addBuiltin("exit", "exit [N]", "Exit the shell with status N, 0 by default.", Exit)
}
