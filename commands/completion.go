package commands

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/pipesh/core/env"
	"github.com/josephlewis42/pipesh/core/process"
	"github.com/spf13/afero"
)

// CommandNames returns the builtins, aliases and PATH executables of the
// session, sorted and without duplicates.
func (s *Shell) CommandNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(list []string) {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	add(s.Builtins.Names())
	add(s.Aliases.Names())
	add(process.Executables(s.Fs, s.dir, s.Env.Getenv(env.Path)))
	sort.Strings(names)
	return names
}

// Completer completes command names in command position and paths
// everywhere else.
type Completer struct {
	Shell *Shell
}

var _ readline.AutoCompleter = (*Completer)(nil)

// Do implements readline.AutoCompleter.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	before := string(line[:pos])

	start := strings.LastIndexAny(before, " \t|&;<>")
	word := before[start+1:]

	var candidates []string
	if isCommandPosition(before[:start+1]) && !strings.ContainsRune(word, '/') {
		for _, name := range c.Shell.CommandNames() {
			if strings.HasPrefix(name, word) {
				candidates = append(candidates, name+" ")
			}
		}
	}
	candidates = append(candidates, c.paths(word)...)

	out := make([][]rune, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, []rune(strings.TrimPrefix(candidate, word)))
	}
	return out, len([]rune(word))
}

// isCommandPosition reports whether a word following prefix is the name of
// a command.
func isCommandPosition(prefix string) bool {
	prefix = strings.TrimRight(prefix, " \t")
	if prefix == "" {
		return true
	}
	switch prefix[len(prefix)-1] {
	case '|', '&', ';':
		return true
	default:
		return false
	}
}

// paths lists the entries starting with word, directories get a trailing
// slash. Dotfiles are only offered when the prefix starts with a dot.
func (c *Completer) paths(word string) []string {
	dir, base := filepath.Split(word)

	var search string
	switch {
	case dir == "":
		search = c.Shell.Getwd()
	case strings.HasPrefix(dir, "~/"):
		search = c.Shell.resolve(filepath.Join(c.Shell.Env.Getenv(env.Home), dir[2:]))
	default:
		search = c.Shell.resolve(dir)
	}

	entries, err := afero.ReadDir(c.Shell.Fs, search)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if entry.IsDir() {
			out = append(out, dir+name+"/")
		} else {
			out = append(out, dir+name+" ")
		}
	}
	return out
}
