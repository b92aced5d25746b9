package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/process"
)

// Source runs each line of a file in the current session.
func Source(s *Shell, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(s.Stderr, "source: filename argument required")
		return process.StatusUsage
	}
	if s.sourceDepth >= maxSourceDepth {
		fmt.Fprintf(s.Stderr, "source: %s: maximum nesting depth exceeded\n", args[0])
		return process.StatusFailure
	}

	f, err := s.Fs.Open(s.resolve(args[0]))
	if err != nil {
		fmt.Fprintf(s.Stderr, "source: %s: No such file or directory\n", args[0])
		return process.StatusFailure
	}
	defer f.Close()

	s.sourceDepth++
	defer func() { s.sourceDepth-- }()

	// An empty file leaves a status of 0.
	s.lastStatus = 0
	return s.RunScript(s.ctx, f)
}

var _ BuiltinFunc = Source

func init() {
	addBuiltin("source", "source FILE", "Run the commands in FILE in the current shell.", Source)
	addBuiltin(".", ". FILE", "Run the commands in FILE in the current shell.", Source)
}
