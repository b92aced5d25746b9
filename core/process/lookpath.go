package process

import (
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	if err != nil {
		return err
	}
	switch m := d.Mode(); {
	case m.IsDir():
		return &fs.PathError{Op: "exec", Path: file, Err: syscall.EISDIR}
	case m&0111 == 0:
		return &fs.PathError{Op: "exec", Path: file, Err: fs.ErrPermission}
	}
	return nil
}

// LookPath searches for an executable named file in the directories named by
// path, a PATH style list. If file contains a slash, it is tried directly, path
// is not consulted and the error says why it can't be run. Relative names and
// path entries are resolved against dir, so the result is always absolute when
// dir is.
func LookPath(fsys afero.Fs, dir, path, file string) (string, error) {
	if strings.Contains(file, "/") {
		file = resolve(dir, file)
		if err := findExecutable(fsys, file); err != nil {
			return "", err
		}
		return file, nil
	}

	for _, entry := range filepath.SplitList(path) {
		if entry == "" {
			// Unix shell semantics: path element "" means "."
			entry = "."
		}
		candidate := resolve(dir, filepath.Join(entry, file))
		if err := findExecutable(fsys, candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

// Executables lists the names of the executable files found in path, without
// duplicates, in path order.
func Executables(fsys afero.Fs, dir, path string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range filepath.SplitList(path) {
		if entry == "" {
			entry = "."
		}
		infos, err := afero.ReadDir(fsys, resolve(dir, entry))
		if err != nil {
			continue
		}
		for _, info := range infos {
			name := info.Name()
			if seen[name] {
				continue
			}
			if m := info.Mode(); m.IsDir() || m&0111 == 0 {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
