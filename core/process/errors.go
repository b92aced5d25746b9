package process

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/pipesh/core/shell"
)

var (
	// ErrCommandNotFound is matched by errors for commands that can't be
	// resolved to an executable.
	ErrCommandNotFound = errors.New("command not found")

	// ErrRedirection is matched by errors for redirection targets that can't
	// be opened.
	ErrRedirection = errors.New("redirection failed")

	// ErrSpawn is matched by errors for executables that can't be started.
	ErrSpawn = errors.New("spawn failed")
)

// CommandNotFoundError is returned when a stage's command can't be resolved.
type CommandNotFoundError struct {
	Name string
	Err  error
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Name)
}

func (e *CommandNotFoundError) Unwrap() error {
	return e.Err
}

func (e *CommandNotFoundError) Is(target error) bool {
	return target == ErrCommandNotFound
}

// RedirectionError is returned when a redirection target can't be opened in
// the mode it asks for.
type RedirectionError struct {
	Redirection shell.Redirection
	Err         error
}

func (e *RedirectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Redirection.Target, pathCause(e.Err))
}

func (e *RedirectionError) Unwrap() error {
	return e.Err
}

func (e *RedirectionError) Is(target error) bool {
	return target == ErrRedirection
}

// SpawnError is returned when an executable was found but couldn't be
// started.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, pathCause(e.Err))
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}

// pathCause strips the operation and path from a *fs.PathError, the caller
// already names the file.
func pathCause(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
