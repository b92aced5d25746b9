package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/pipesh/core/env"
	"github.com/josephlewis42/pipesh/core/process"
)

// Which prints the executable each argument resolves to on the PATH.
func Which(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "which [-a] NAME...",
		Short: "Locate a command on the PATH.",
	}
	all := cmd.Flags().Bool('a', "print all matching executables")

	return cmd.RunEachArg(s, args, func(name string) error {
		if !*all || strings.ContainsRune(name, '/') {
			res, err := s.LookPath(name)
			if err != nil {
				return fmt.Errorf("no %s in PATH", name)
			}
			fmt.Fprintln(s.Stdout, res)
			return nil
		}

		found := false
		for _, dir := range filepath.SplitList(s.Env.Getenv(env.Path)) {
			res, err := process.LookPath(s.Fs, s.Getwd(), dir, name)
			if err != nil {
				continue
			}
			fmt.Fprintln(s.Stdout, res)
			found = true
		}
		if !found {
			return fmt.Errorf("no %s in PATH", name)
		}
		return nil
	})
}

var _ BuiltinFunc = Which

func init() {
	addBuiltin("which", "which [-a] NAME...", "Locate a command on the PATH.", Which)
}
