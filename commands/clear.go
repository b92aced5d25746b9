package commands

import (
	"fmt"
)

// Clear clears the screen, assuming VT100 compatibility.
func Clear(s *Shell, args []string) int {
	fmt.Fprint(s.Stdout, "\033[2J\033[H")
	return 0
}

var _ BuiltinFunc = Clear

func init() {
	addBuiltin("clear", "clear", "Clear the terminal screen.", Clear)
}
