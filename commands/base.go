package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/pipesh/core/process"
	getopt "github.com/pborman/getopt/v2"
	"go.uber.org/zap"
)

type SimpleCommand struct {
	// Use holds a one line usage string, the first word is the command name.
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Name returns the first word of Use.
func (s *SimpleCommand) Name() string {
	if fields := strings.Fields(s.Use); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses args (excluding the command name) and calls the callback if flag
// parsing was successful. Bad flags print the usage to stderr and give
// StatusUsage.
func (s *SimpleCommand) Run(sh *Shell, args []string, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(append([]string{s.Name()}, args...), nil); err != nil {
		sh.Logger.Debug("invalid invocation", zap.String("command", s.Name()), zap.Error(err))
		fmt.Fprintf(sh.Stderr, "%s: %s\n", s.Name(), err)
		s.PrintHelp(sh.Stderr)
		return process.StatusUsage
	}

	if *s.ShowHelp {
		s.PrintHelp(sh.Stdout)
		return 0
	}

	return callback()
}

// RunEachArg runs the callback once for every positional argument, printing
// each failure prefixed with the command name. The status is 1 if any
// argument failed.
func (s *SimpleCommand) RunEachArg(sh *Shell, args []string, callback func(arg string) error) int {
	return s.Run(sh, args, func() int {
		status := 0
		for _, arg := range s.Flags().Args() {
			if err := callback(arg); err != nil {
				fmt.Fprintf(sh.Stderr, "%s: %s\n", s.Name(), err)
				status = process.StatusFailure
			}
		}
		return status
	})
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = []color.Attribute{color.FgBlue, color.Bold}
	ColorBoldGreen = []color.Attribute{color.FgGreen, color.Bold}
	ColorBoldRed   = []color.Attribute{color.FgRed, color.Bold}
)

// ColorPrinter colors output according to an always, auto or never setting.
type ColorPrinter struct {
	Mode string
	// IsTerminal is consulted in auto mode.
	IsTerminal func() bool
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case c == nil || c.Mode == colorNever:
		return false
	case c.Mode == colorAlways:
		return true
	default:
		return c.IsTerminal != nil && c.IsTerminal()
	}
}

func (c *ColorPrinter) Sprint(attrs []color.Attribute, a ...interface{}) string {
	if !c.ShouldColor() {
		return fmt.Sprint(a...)
	}
	// The package wide NoColor only tracks os.Stdout, the mode decides here.
	col := color.New(attrs...)
	col.EnableColor()
	return col.Sprint(a...)
}
