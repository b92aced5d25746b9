package commands

import (
	"context"
	"os"
	"os/signal"
	"sort"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// isTerminal reports whether v is a file connected to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// catchInterrupts keeps SIGINT from terminating the shell while children
// run. A terminal delivers the signal to the children itself, otherwise it's
// forwarded by cancelling the returned context.
func (s *Shell) catchInterrupts(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	if !s.trapInterrupts {
		return ctx, cancel
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	forward := !isTerminal(s.Stdin)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-signals:
				s.Logger.Debug("interrupted", zap.Stringer("signal", sig), zap.Bool("forwarded", forward))
				if forward {
					cancel()
				}
			}
		}
	}()

	return ctx, func() {
		signal.Stop(signals)
		close(done)
		cancel()
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
