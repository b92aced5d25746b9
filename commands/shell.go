package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/env"
	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// maxSourceDepth bounds nested source calls.
const maxSourceDepth = 64

// Options configures a new Shell.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the initial working directory, the process's if empty.
	Dir string
	// Environ is the initial environment, the process's if nil.
	Environ []string
	// Fs is used for cd, redirections, globs, PATH lookup and source, the OS
	// if nil.
	Fs afero.Fs
	// Config supplies the prompt, aliases, environment and history settings,
	// the built-in defaults if nil.
	Config *config.Configuration
	// Builtins is the registry to dispatch to, DefaultRegistry() if nil.
	Builtins *Registry
	Logger   *zap.Logger

	// TrapInterrupts keeps SIGINT from killing the shell while a pipeline
	// runs.
	TrapInterrupts bool
	// WaitDelay is passed to the orchestrator.
	WaitDelay time.Duration
}

// Shell is an interactive session: it owns a working directory, environment,
// aliases and history, and never changes those of the process it runs in.
type Shell struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Env      *env.MapEnv
	Aliases  *shell.AliasTable
	Builtins *Registry
	Fs       afero.Fs
	Logger   *zap.Logger
	Color    *ColorPrinter

	config         *config.Configuration
	trapInterrupts bool
	waitDelay      time.Duration

	dir     string
	prevDir string
	pid     int

	lastStatus     int
	history        []string
	historyChanged bool
	readline       *readline.Instance
	sourceDepth    int

	exiting  bool
	exitCode int

	// ctx is the context of the line being run, for builtins that spawn.
	ctx context.Context
}

// NewShell creates a session from opts.
func NewShell(opts Options) *Shell {
	s := &Shell{
		Stdin:          opts.Stdin,
		Stdout:         opts.Stdout,
		Stderr:         opts.Stderr,
		Aliases:        shell.NewAliasTable(),
		Builtins:       opts.Builtins,
		Fs:             opts.Fs,
		Logger:         opts.Logger,
		config:         opts.Config,
		trapInterrupts: opts.TrapInterrupts,
		waitDelay:      opts.WaitDelay,
		pid:            os.Getpid(),
		ctx:            context.Background(),
	}

	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	if s.Fs == nil {
		s.Fs = afero.NewOsFs()
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Builtins == nil {
		s.Builtins = DefaultRegistry()
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}

	if opts.Environ != nil {
		s.Env = env.NewMapEnvFrom(env.List(opts.Environ))
	} else {
		s.Env = env.FromOS()
	}

	s.dir = opts.Dir
	if s.dir == "" {
		if wd, err := os.Getwd(); err == nil {
			s.dir = wd
		} else {
			s.dir = "/"
		}
	}
	s.dir = filepath.Clean(s.dir)

	s.Color = &ColorPrinter{
		Mode:       s.config.Color,
		IsTerminal: func() bool { return isTerminal(s.Stdout) },
	}

	s.init()
	return s
}

// init sets up the environment similar to login + source ~/.pipeshrc.
func (s *Shell) init() {
	s.Env.Setenv(env.PWD, s.dir)
	s.Env.Setenv(env.Prompt, s.config.Prompt)
	for _, key := range sortedKeys(s.config.Env) {
		s.Env.Setenv(key, s.config.Env[key])
	}
	for _, name := range sortedKeys(s.config.Aliases) {
		if err := s.Aliases.Define(name, s.config.Aliases[name]); err != nil {
			s.Logger.Warn("skipping configured alias", zap.String("alias", name), zap.Error(err))
		}
	}

	if path := s.historyPath(); path != "" {
		if data, err := afero.ReadFile(s.Fs, path); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.TrimSpace(line) != "" {
					s.history = append(s.history, line)
				}
			}
			s.trimHistory()
		}
	}
}

// Getwd returns the session's working directory.
func (s *Shell) Getwd() string {
	return s.dir
}

// Chdir changes the session's working directory, relative paths are resolved
// against the current one. PWD and OLDPWD are updated.
func (s *Shell) Chdir(dir string) error {
	path := s.resolve(dir)
	info, err := s.Fs.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("no such file or directory: %s", dir)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("not a directory: %s", dir)
	}

	s.prevDir, s.dir = s.dir, path
	s.Env.Setenv(env.OldPWD, s.prevDir)
	s.Env.Setenv(env.PWD, s.dir)
	return nil
}

// PreviousDir returns the directory before the last successful Chdir.
func (s *Shell) PreviousDir() string {
	return s.prevDir
}

func (s *Shell) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.dir, path)
}

// LastStatus returns the exit status of the most recent pipeline.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

// Exit asks the shell to stop after the current command.
func (s *Shell) Exit(code int) {
	s.exiting = true
	s.exitCode = code
}

// Exited reports whether exit was called and with which code.
func (s *Shell) Exited() (bool, int) {
	return s.exiting, s.exitCode
}

// History returns a copy of the session's history.
func (s *Shell) History() []string {
	return append([]string(nil), s.history...)
}

// AddHistory appends a line to the history.
func (s *Shell) AddHistory(line string) {
	s.history = append(s.history, line)
	s.historyChanged = true
	s.trimHistory()
}

// ClearHistory removes every history entry.
func (s *Shell) ClearHistory() {
	s.history = nil
	s.historyChanged = true
	if s.readline != nil {
		s.readline.ResetHistory()
	}
}

func (s *Shell) trimHistory() {
	if limit := s.config.HistoryLimit; limit > 0 && len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
}

// historyPath is empty when history isn't persisted or HOME is unset.
func (s *Shell) historyPath() string {
	path := s.config.HistoryPath(s.Env.Getenv(env.Home))
	if !filepath.IsAbs(path) {
		return ""
	}
	return path
}

// lookup resolves variables for expansion, including $? and $$.
func (s *Shell) lookup(name string) (string, bool) {
	switch name {
	case "?":
		return strconv.Itoa(s.lastStatus), true
	case "$":
		return strconv.Itoa(s.pid), true
	default:
		return s.Env.LookupEnv(name)
	}
}

// Expander returns an expander bound to the session's current state.
func (s *Shell) Expander() *shell.Expander {
	return &shell.Expander{
		Lookup: s.lookup,
		Home:   s.Env.Getenv(env.Home),
		Dir:    s.dir,
		Fs:     s.Fs,
	}
}

// LookPath finds an executable using the session's PATH and directory.
func (s *Shell) LookPath(name string) (string, error) {
	return process.LookPath(s.Fs, s.dir, s.Env.Getenv(env.Path), name)
}

// RunLine runs one line of input and returns its exit status. Errors are
// reported on Stderr, only exit stops the session.
func (s *Shell) RunLine(ctx context.Context, line string) int {
	s.ctx = ctx
	s.Logger.Debug("run line", zap.String("line", line))

	tokens, err := shell.Tokenize(line)
	if err != nil {
		return s.fail(process.StatusUsage, err)
	}

	// The whole line is checked before any of it runs.
	if _, err := shell.Parse(tokens); err != nil {
		return s.fail(process.StatusUsage, err)
	}

	items, err := shell.SplitList(tokens)
	if err != nil {
		return s.fail(process.StatusUsage, err)
	}

	for i, item := range items {
		if s.exiting {
			break
		}
		if i > 0 && !items[i-1].Op.Runs(s.lastStatus) {
			continue
		}
		s.runItem(ctx, item.Tokens)
	}
	return s.lastStatus
}

// runItem expands and runs one element of a list. Expansion happens here so
// $? and $PWD reflect the elements before it.
func (s *Shell) runItem(ctx context.Context, tokens []shell.Token) {
	expander := s.Expander()
	tokens = expander.Expand(tokens)
	tokens = shell.ResolveAliases(tokens, s.Aliases, expander.Expand)
	if len(tokens) == 0 {
		s.fail(process.StatusUsage, &shell.SyntaxError{Msg: "missing command"})
		return
	}

	// Aliases may introduce list operators of their own.
	list, err := shell.Parse(tokens)
	if err != nil {
		s.fail(process.StatusUsage, err)
		return
	}
	for i, step := range list.Steps {
		if s.exiting {
			return
		}
		if i > 0 && !list.Steps[i-1].Op.Runs(s.lastStatus) {
			continue
		}
		s.lastStatus = s.runPipeline(ctx, step.Pipeline)
	}
}

func (s *Shell) runPipeline(ctx context.Context, p *shell.Pipeline) int {
	if len(p.Commands) == 1 {
		if b, ok := s.Builtins.Lookup(p.Commands[0].Name()); ok {
			return s.runBuiltin(b, &p.Commands[0])
		}
	}

	return s.runExternal(ctx, p)
}

func (s *Shell) runExternal(ctx context.Context, p *shell.Pipeline) int {
	ctx, stop := s.catchInterrupts(ctx)
	defer stop()

	res, err := s.orchestrator().Run(ctx, p)
	for _, e := range multierr.Errors(err) {
		s.Logger.Warn("pipeline error", zap.Stringer("pipeline", p), zap.Error(e))
		s.printError(e)
	}
	s.Logger.Debug("pipeline finished",
		zap.Stringer("pipeline", p),
		zap.Ints("pids", res.Pids),
		zap.Ints("statuses", res.Statuses))
	return res.Status
}

// runBuiltin calls b with the command's redirections applied to the
// session's streams for the duration of the call.
func (s *Shell) runBuiltin(b Builtin, c *shell.Command) int {
	stdin, stdout := s.Stdin, s.Stdout
	defer func() {
		s.Stdin, s.Stdout = stdin, stdout
	}()

	for _, r := range c.Redirections() {
		f, err := process.OpenRedirection(s.Fs, s.dir, r)
		if err != nil {
			s.printError(err)
			return process.StatusFailure
		}
		defer f.Close()

		if r.Mode == shell.RedirectRead {
			s.Stdin = f
		} else {
			s.Stdout = f
		}
	}

	s.Logger.Debug("run builtin", zap.Strings("argv", c.Argv))
	return b.Main(s, c.Args())
}

// RunExternal runs argv as a single external command, bypassing builtins
// and aliases.
func (s *Shell) RunExternal(argv []string) int {
	if len(argv) == 0 {
		return 0
	}
	return s.runExternal(s.ctx, &shell.Pipeline{Commands: []shell.Command{{Argv: argv}}})
}

func (s *Shell) orchestrator() *process.Orchestrator {
	return &process.Orchestrator{
		Dir:       s.dir,
		Env:       s.Env.Environ(),
		Stdin:     s.Stdin,
		Stdout:    s.Stdout,
		Stderr:    s.Stderr,
		Fs:        s.Fs,
		WaitDelay: s.waitDelay,
		Logger:    s.Logger,
	}
}

// RunScript runs every line read from r until it's exhausted or exit is
// called, returning the last status.
func (s *Shell) RunScript(ctx context.Context, r io.Reader) int {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if s.exiting || ctx.Err() != nil {
			break
		}
		s.RunLine(ctx, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return s.fail(process.StatusFailure, err)
	}
	return s.Status()
}

// Status is the exit status of the session: the exit code if exit was
// called, otherwise the last status.
func (s *Shell) Status() int {
	if s.exiting {
		return s.exitCode
	}
	return s.lastStatus
}

// Close saves the history.
func (s *Shell) Close() error {
	var err error
	if s.readline != nil {
		err = s.readline.Close()
		s.readline = nil
	}
	return multierr.Append(err, s.saveHistory())
}

func (s *Shell) saveHistory() error {
	path := s.historyPath()
	if path == "" || !s.historyChanged {
		return nil
	}

	var sb strings.Builder
	for _, line := range s.history {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := afero.WriteFile(s.Fs, path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("couldn't save history: %w", err)
	}
	return nil
}

// fail reports err and records status as the last status.
func (s *Shell) fail(status int, err error) int {
	s.Logger.Warn("command failed", zap.Error(err), zap.Int("status", status))
	s.printError(err)
	s.lastStatus = status
	return status
}

func (s *Shell) printError(err error) {
	fmt.Fprintf(s.Stderr, "%s %v\n", s.Color.Sprint(ColorBoldRed, "pipesh:"), err)
}
