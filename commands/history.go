package commands

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/pipesh/core/process"
)

// History displays or clears the session's history.
func History(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "history [-c] [N]",
		Short: "Display or clear the command history.",
	}
	opts := cmd.Flags()
	reset := opts.Bool('c', "clear the history by deleting all entries")

	return cmd.Run(s, args, func() int {
		if *reset {
			s.ClearHistory()
			return 0
		}

		history := s.History()
		start := 0
		switch rest := opts.Args(); len(rest) {
		case 0:
		case 1:
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 0 {
				fmt.Fprintf(s.Stderr, "history: %s: numeric argument required\n", rest[0])
				return process.StatusUsage
			}
			if n < len(history) {
				start = len(history) - n
			}
		default:
			fmt.Fprintln(s.Stderr, "history: too many arguments")
			return process.StatusFailure
		}

		for i := start; i < len(history); i++ {
			fmt.Fprintf(s.Stdout, "% 5d  %s\n", i+1, history[i])
		}
		return 0
	})
}

var _ BuiltinFunc = History

func init() {
	addBuiltin("history", "history [-c] [N]", "Display or clear the command history.", History)
}
