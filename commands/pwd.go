package commands

import (
	"fmt"
)

// Pwd prints the session's working directory.
func Pwd(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the current working directory.",
	}

	return cmd.Run(s, args, func() int {
		fmt.Fprintln(s.Stdout, s.Getwd())
		return 0
	})
}

var _ BuiltinFunc = Pwd

func init() {
	addBuiltin("pwd", "pwd", "Print the current working directory.", Pwd)
}
