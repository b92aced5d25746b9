package commands

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{
		".", "alias", "cd", "clear", "env", "exit", "export", "help",
		"history", "pwd", "source", "type", "unalias", "unset", "which",
	}, r.Names())

	for _, entry := range r.Entries() {
		t.Run(entry.Name, func(t *testing.T) {
			assert.NotNil(t, entry.Builtin)
			assert.NotEmpty(t, entry.Short)
			assert.True(t, strings.HasPrefix(entry.Use, entry.Name), entry.Use)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("hello")
	assert.False(t, ok)

	r.Register(BuiltinEntry{
		Name: "hello",
		Builtin: BuiltinFunc(func(s *Shell, args []string) int {
			return len(args)
		}),
	})

	b, ok := r.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, 2, b.Main(nil, []string{"a", "b"}))

	// Registries are independent.
	_, ok = DefaultRegistry().Lookup("hello")
	assert.False(t, ok)
}

func TestShell_customBuiltins(t *testing.T) {
	ts := newTestShell(t)
	ts.Builtins.Register(BuiltinEntry{
		Name: "greet",
		Builtin: BuiltinFunc(func(s *Shell, args []string) int {
			s.Stdout.Write([]byte("hello " + strings.Join(args, " ") + "\n"))
			return 7
		}),
	})

	assert.Equal(t, 7, ts.run("greet a b > out.txt"))
	contents, err := os.ReadFile(ts.path("out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello a b\n", string(contents))
}

func TestHelp_unknown(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 1, ts.run("help nope"))
	assert.Equal(t, "help: no help topics match `nope'.\n", ts.stderr.String())
}

func TestExport(t *testing.T) {
	ts := newTestShell(t)
	ts.Env.Clearenv()

	assert.Equal(t, 0, ts.run("export B='two words' A=1 EMPTY="))
	assert.Equal(t, 0, ts.run("export"))
	assert.Equal(t, "export A=1\nexport B='two words'\nexport EMPTY=''\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 0, ts.run("export A"))
	assert.Equal(t, "1", ts.Env.Getenv("A"))
	assert.Equal(t, 0, ts.run("export NEW"))
	_, ok := ts.Env.LookupEnv("NEW")
	assert.True(t, ok)

	assert.Equal(t, 1, ts.run("export 1BAD=x"))
	assert.Equal(t, "export: `1BAD=x': not a valid identifier\n", ts.stderr.String())
}

func TestExport_list(t *testing.T) {
	ts := newTestShell(t)
	ts.Env.Clearenv()
	ts.Env.Setenv("ONLY", "$value")

	assert.Equal(t, 0, ts.run("export -p"))
	assert.Equal(t, "export ONLY='$value'\n", ts.stdout.String())
}

func TestUnset(t *testing.T) {
	ts := newTestShell(t)
	ts.Env.Setenv("GONE", "x")

	assert.Equal(t, 0, ts.run("unset GONE NEVER_SET"))
	_, ok := ts.Env.LookupEnv("GONE")
	assert.False(t, ok)

	assert.Equal(t, 1, ts.run("unset 'a b'"))
	assert.Equal(t, "unset: `a b': not a valid identifier\n", ts.stderr.String())
}

func TestEnv(t *testing.T) {
	ts := newTestShell(t)
	ts.Env.Clearenv()
	ts.Env.Setenv("B", "2")
	ts.Env.Setenv("A", "1")

	assert.Equal(t, 0, ts.run("env"))
	assert.Equal(t, "A=1\nB=2\n", ts.stdout.String())
}

func TestEnv_external(t *testing.T) {
	requireShell(t)
	ts := newTestShell(t)

	assert.Equal(t, 0, ts.run("env EXTRA=yes sh -c 'echo $EXTRA'"))
	assert.Equal(t, "yes\n", ts.stdout.String())
	_, ok := ts.Env.LookupEnv("EXTRA")
	assert.False(t, ok)
}

func TestAlias(t *testing.T) {
	ts := newTestShell(t)
	ts.Aliases.Clear()

	assert.Equal(t, 0, ts.run("alias ll='ls -l' q=\"it's\""))
	assert.Equal(t, 0, ts.run("alias"))
	assert.Equal(t, "alias ll='ls -l'\nalias q=it\\'s\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 0, ts.run("alias ll"))
	assert.Equal(t, "alias ll='ls -l'\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 1, ts.run("alias missing"))
	assert.Equal(t, "alias: missing: not found\n", ts.stderr.String())

	ts.reset()
	assert.Equal(t, 1, ts.run("alias 'a b=x'"))
	assert.Equal(t, "alias: `a b': invalid alias name\n", ts.stderr.String())

	// Definitions are only tokenized when used, a broken one leaves the name
	// as is.
	ts.reset()
	assert.Equal(t, 0, ts.run(`alias bad='echo "unterminated'`))
	assert.Equal(t, 127, ts.run("bad"))
	assert.Equal(t, "pipesh: bad: command not found\n", ts.stderr.String())
}

func TestUnalias(t *testing.T) {
	ts := newTestShell(t)
	ts.run("alias a=true b=false")

	assert.Equal(t, 0, ts.run("unalias a"))
	_, ok := ts.Aliases.Lookup("a")
	assert.False(t, ok)

	assert.Equal(t, 1, ts.run("unalias a"))
	assert.Equal(t, "unalias: a: not found\n", ts.stderr.String())

	ts.reset()
	assert.Equal(t, 2, ts.run("unalias"))
	assert.Equal(t, "unalias: usage: unalias [-a] NAME...\n", ts.stderr.String())

	assert.Equal(t, 0, ts.run("unalias -a"))
	assert.Empty(t, ts.Aliases.Names())
}

func TestHistory(t *testing.T) {
	ts := newTestShell(t)
	ts.AddHistory("first")
	ts.AddHistory("second")
	ts.AddHistory("third")

	assert.Equal(t, 0, ts.run("history"))
	assert.Equal(t, "    1  first\n    2  second\n    3  third\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 0, ts.run("history 2"))
	assert.Equal(t, "    2  second\n    3  third\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 0, ts.run("history 10"))
	assert.Equal(t, "    1  first\n    2  second\n    3  third\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 2, ts.run("history x"))
	assert.Equal(t, "history: x: numeric argument required\n", ts.stderr.String())

	ts.reset()
	assert.Equal(t, 0, ts.run("history -c"))
	assert.Equal(t, 0, ts.run("history"))
	assert.Empty(t, ts.stdout.String())
	assert.Empty(t, ts.History())
}

func TestWhich(t *testing.T) {
	requireShell(t)
	ts := newTestShell(t)
	expected, err := ts.LookPath("sh")
	require.NoError(t, err)

	assert.Equal(t, 0, ts.run("which sh"))
	assert.Equal(t, expected+"\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 0, ts.run("which -a sh"))
	assert.True(t, strings.HasPrefix(ts.stdout.String(), expected+"\n"))

	ts.reset()
	assert.Equal(t, 1, ts.run("which no-such-command-xyz"))
	assert.Equal(t, "which: no no-such-command-xyz in PATH\n", ts.stderr.String())
}

func TestWhich_relative(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, os.WriteFile(ts.path("tool"), []byte("#!/bin/sh\n"), 0755))

	assert.Equal(t, 0, ts.run("which ./tool"))
	assert.Equal(t, ts.path("tool")+"\n", ts.stdout.String())
}

func TestType(t *testing.T) {
	requireShell(t)
	ts := newTestShell(t)
	shPath, err := ts.LookPath("sh")
	require.NoError(t, err)

	assert.Equal(t, 0, ts.run("type cd ll sh"))
	assert.Equal(t, "cd is a shell builtin\nll is aliased to `ls -l'\nsh is "+shPath+"\n", ts.stdout.String())

	ts.reset()
	assert.Equal(t, 1, ts.run("type no-such-command-xyz"))
	assert.Equal(t, "type: no-such-command-xyz: not found\n", ts.stderr.String())
}

func TestSource(t *testing.T) {
	requireShell(t)
	ts := newTestShell(t)
	script := "export SOURCED=1\n# comment\n\nalias hello='echo hello'\ncd /\n"
	require.NoError(t, os.WriteFile(ts.path("script.sh"), []byte(script), 0644))

	assert.Equal(t, 0, ts.run("source script.sh"))
	assert.Equal(t, "1", ts.Env.Getenv("SOURCED"))
	assert.Equal(t, "/", ts.Getwd())

	ts.run("hello")
	assert.Equal(t, "hello\n", ts.stdout.String())
}

func TestSource_dot(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, os.WriteFile(ts.path("fails.sh"), []byte("true\nno-such-command-xyz\n"), 0644))

	assert.Equal(t, 127, ts.run(". fails.sh"))
}

func TestSource_errors(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 2, ts.run("source"))
	assert.Equal(t, "source: filename argument required\n", ts.stderr.String())

	ts.reset()
	assert.Equal(t, 1, ts.run("source missing.sh"))
	assert.Equal(t, "source: missing.sh: No such file or directory\n", ts.stderr.String())
}

func TestSource_recursion(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, os.WriteFile(ts.path("self.sh"), []byte("source self.sh\n"), 0644))

	assert.Equal(t, 1, ts.run("source self.sh"))
	assert.Contains(t, ts.stderr.String(), "source: self.sh: maximum nesting depth exceeded\n")
}

func TestSource_exit(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, os.WriteFile(ts.path("quit.sh"), []byte("exit 5\npwd\n"), 0644))

	assert.Equal(t, 5, ts.run("source quit.sh; pwd"))
	assert.Empty(t, ts.stdout.String())
	exited, code := ts.Exited()
	assert.True(t, exited)
	assert.Equal(t, 5, code)
}

func TestClear(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 0, ts.run("clear"))
	assert.Equal(t, "\033[2J\033[H", ts.stdout.String())
}
