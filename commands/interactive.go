package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"go.uber.org/zap"
)

func (s *Shell) newReadline() (*readline.Instance, error) {
	cfg := &readline.Config{
		Prompt:                 s.Prompt(),
		AutoComplete:           &Completer{Shell: s},
		HistoryLimit:           s.config.HistoryLimit,
		HistorySearchFold:      true,
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		Stdout:                 s.Stdout,
		Stderr:                 s.Stderr,
		FuncIsTerminal: func() bool {
			return isTerminal(s.Stdin) && isTerminal(s.Stdout)
		},
	}
	if s.Stdin != os.Stdin {
		cfg.Stdin = readline.NewCancelableStdin(s.Stdin)
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}

	// Seed the line editor with the persisted history.
	for _, line := range s.history {
		rl.Operation.SaveHistory(line)
	}
	return rl, nil
}

// Run reads and runs lines until exit is called or the input ends, then
// returns the session's status.
func (s *Shell) Run(ctx context.Context) (int, error) {
	rl, err := s.newReadline()
	if err != nil {
		return 0, fmt.Errorf("couldn't start line editor: %w", err)
	}
	s.readline = rl
	defer func() {
		if err := s.Close(); err != nil {
			s.Logger.Warn("closing shell", zap.Error(err))
		}
	}()

	for !s.exiting {
		if err := ctx.Err(); err != nil {
			return s.Status(), err
		}

		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			// Interrupt clears line.
			continue
		case errors.Is(err, io.EOF):
			return s.Status(), nil
		case err != nil:
			return s.Status(), err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		s.AddHistory(line)
		rl.SaveHistory(line)
		s.RunLine(ctx, line)
	}
	return s.Status(), nil
}
