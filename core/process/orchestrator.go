// Package process runs parsed pipelines as operating system processes.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Result holds the outcome of a pipeline.
type Result struct {
	// Status is the exit status of the last stage.
	Status int
	// Statuses holds the exit status of every stage, in order.
	Statuses []int
	// Pids holds the process id of every stage, 0 for stages that never
	// started.
	Pids []int
}

// Orchestrator spawns the stages of a pipeline connected by pipes.
type Orchestrator struct {
	// Dir is the working directory of the children, relative redirection
	// targets and executables are resolved against it.
	Dir string
	// Env is the environment of the children, its PATH is used to find
	// executables.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Fs is used to find executables and open redirection targets, the OS if
	// nil.
	Fs afero.Fs

	// WaitDelay bounds how long to wait for children to exit after the context
	// is done and they've been interrupted before killing them. Zero waits
	// forever.
	WaitDelay time.Duration

	Logger *zap.Logger
}

type stage struct {
	name   string
	cmd    *exec.Cmd
	status int
	err    error

	// release is closed in the parent as soon as the child has its copy.
	release []io.Closer
	// closeAfterWait is closed once the child exited, for streams exec has
	// to copy in a goroutine.
	closeAfterWait []io.Closer
}

func (s *stage) fail(status int, err error) {
	s.status = status
	s.err = err
}

// Run starts every stage of p before waiting on any of them, then waits for
// all of them. The returned Result is valid even when err is not nil: stages
// that failed to start are reported alongside the statuses of the others.
func (o *Orchestrator) Run(ctx context.Context, p *shell.Pipeline) (Result, error) {
	n := len(p.Commands)
	if n == 0 {
		return Result{Status: StatusUsage}, errors.New("empty pipeline")
	}

	// pipeIn[i] feeds stage i, pipeOut[i] is written by stage i.
	pipeIn := make([]*os.File, n)
	pipeOut := make([]*os.File, n)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeFiles(pipeIn)
			closeFiles(pipeOut)
			return Result{Status: StatusFailure}, fmt.Errorf("couldn't create pipe: %w", err)
		}
		pipeOut[i], pipeIn[i+1] = w, r
	}

	stages := make([]*stage, n)
	var errs error
	for i := range p.Commands {
		st := o.start(ctx, &p.Commands[i], pipeIn[i], pipeOut[i])
		stages[i] = st
		errs = multierr.Append(errs, st.err)
	}

	res := Result{
		Statuses: make([]int, n),
		Pids:     make([]int, n),
	}
	for i, st := range stages {
		if st.cmd != nil {
			res.Pids[i] = st.cmd.Process.Pid
			st.status = ExitStatus(st.cmd.Wait())
			o.logger().Debug("process exited",
				zap.String("command", st.name),
				zap.Int("pid", res.Pids[i]),
				zap.Int("status", st.status))
		}
		closeAll(st.closeAfterWait)
		res.Statuses[i] = st.status
	}
	res.Status = res.Statuses[n-1]
	return res, errs
}

// start spawns a single stage. The pipe ends it's given are owned by the
// stage and closed in the parent whether or not the spawn succeeds.
func (o *Orchestrator) start(ctx context.Context, c *shell.Command, pipeIn, pipeOut *os.File) *stage {
	st := &stage{name: c.Name()}
	defer func() { closeAll(st.release) }()

	var stdin io.Reader = o.Stdin
	if pipeIn != nil {
		stdin = pipeIn
		st.release = append(st.release, pipeIn)
	}
	var stdout io.Writer = o.Stdout
	if pipeOut != nil {
		stdout = pipeOut
		st.release = append(st.release, pipeOut)
	}

	// Explicit redirections override the pipe connection, the unused pipe
	// end is still released so the neighbouring stage sees EOF or EPIPE.
	if c.Stdin != nil {
		f, err := o.open(*c.Stdin, st)
		if err != nil {
			st.fail(StatusFailure, err)
			return st
		}
		stdin = f
	}
	if c.Stdout != nil {
		f, err := o.open(*c.Stdout, st)
		if err != nil {
			st.fail(StatusFailure, err)
			return st
		}
		stdout = f
	}

	path, err := LookPath(o.fs(), o.Dir, o.path(), c.Name())
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		st.fail(StatusNotFound, &CommandNotFoundError{Name: c.Name(), Err: err})
		return st
	case err != nil:
		// Found, but not something that can be executed.
		st.fail(StatusCannotSpawn, &SpawnError{Name: c.Name(), Err: err})
		return st
	}

	cmd := exec.CommandContext(ctx, path, c.Args()...)
	cmd.Args[0] = c.Name()
	cmd.Dir = o.Dir
	cmd.Env = o.Env
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = o.Stderr
	cmd.WaitDelay = o.WaitDelay
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	if err := cmd.Start(); err != nil {
		st.fail(StatusCannotSpawn, &SpawnError{Name: c.Name(), Err: err})
		return st
	}
	st.cmd = cmd

	o.logger().Debug("process started",
		zap.String("command", c.Name()),
		zap.Strings("argv", c.Argv),
		zap.Int("pid", cmd.Process.Pid))
	return st
}

func (o *Orchestrator) open(r shell.Redirection, st *stage) (afero.File, error) {
	f, err := OpenRedirection(o.fs(), o.Dir, r)
	if err != nil {
		return nil, err
	}
	if _, ok := f.(*os.File); ok {
		st.release = append(st.release, f)
	} else {
		st.closeAfterWait = append(st.closeAfterWait, f)
	}
	return f, nil
}

func (o *Orchestrator) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

func (o *Orchestrator) path() string {
	for i := len(o.Env) - 1; i >= 0; i-- {
		if strings.HasPrefix(o.Env[i], "PATH=") {
			return strings.TrimPrefix(o.Env[i], "PATH=")
		}
	}
	return ""
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// OpenRedirection opens the target of r in its mode. Write targets are
// created if they don't exist, read targets must exist. Relative targets are
// resolved against dir.
func OpenRedirection(fsys afero.Fs, dir string, r shell.Redirection) (afero.File, error) {
	target := r.Target
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}

	var f afero.File
	var err error
	switch r.Mode {
	case shell.RedirectRead:
		f, err = fsys.Open(target)
	case shell.RedirectAppend:
		f, err = fsys.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	default:
		f, err = fsys.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	}
	if err != nil {
		return nil, &RedirectionError{Redirection: r, Err: err}
	}
	return f, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}
