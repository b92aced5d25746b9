package process

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOrchestrator struct {
	*Orchestrator
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestOrchestrator(t *testing.T) *testOrchestrator {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}

	var stdout, stderr bytes.Buffer
	return &testOrchestrator{
		Orchestrator: &Orchestrator{
			Dir:    t.TempDir(),
			Env:    []string{"PATH=" + os.Getenv("PATH"), "FOO=bar"},
			Stdin:  strings.NewReader(""),
			Stdout: &stdout,
			Stderr: &stderr,
		},
		stdout: &stdout,
		stderr: &stderr,
	}
}

func mustParsePipeline(t *testing.T, line string) *shell.Pipeline {
	t.Helper()
	tokens, err := shell.Tokenize(line)
	require.NoError(t, err)
	p, err := shell.ParsePipeline(tokens)
	require.NoError(t, err)
	return p
}

func (o *testOrchestrator) run(t *testing.T, line string) (Result, error) {
	t.Helper()
	return o.Run(context.Background(), mustParsePipeline(t, line))
}

func TestOrchestrator_Run_status(t *testing.T) {
	cases := map[string]struct {
		line     string
		status   int
		statuses []int
	}{
		"success":             {"true", 0, []int{0}},
		"failure":             {"false", 1, []int{1}},
		"last stage reported": {"false | true", 0, []int{1, 0}},
		"last stage failed":   {"true | false", 1, []int{0, 1}},
		"exit code":           {"sh -c 'exit 42'", 42, []int{42}},
		"three stages":        {"true | false | sh -c 'exit 3'", 3, []int{0, 1, 3}},
		"killed by signal":    {"sh -c 'kill -TERM $$'", 143, []int{143}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			o := newTestOrchestrator(t)
			res, err := o.run(t, tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.statuses, res.Statuses)
			for _, pid := range res.Pids {
				assert.NotZero(t, pid)
			}
		})
	}
}

func TestOrchestrator_Run_streams(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Stdin = strings.NewReader("c\na\nb\n")

	_, err := o.run(t, "sort | tr a-z A-Z")
	require.NoError(t, err)
	assert.Equal(t, "A\nB\nC\n", o.stdout.String())

	o.stdout.Reset()
	_, err = o.run(t, `sh -c 'echo "$FOO"; echo oops >&2'`)
	require.NoError(t, err)
	assert.Equal(t, "bar\n", o.stdout.String())
	assert.Equal(t, "oops\n", o.stderr.String())
}

func TestOrchestrator_Run_dir(t *testing.T) {
	o := newTestOrchestrator(t)
	require.NoError(t, os.WriteFile(filepath.Join(o.Dir, "marker"), nil, 0644))

	_, err := o.run(t, "ls")
	require.NoError(t, err)
	assert.Equal(t, "marker\n", o.stdout.String())
}

func TestOrchestrator_Run_redirection(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.run(t, `printf 'hi\nbye\n' > out.txt`)
	require.NoError(t, err)
	assert.Empty(t, o.stdout.String())

	_, err = o.run(t, "cat < out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi\nbye\n", o.stdout.String())

	_, err = o.run(t, "echo again >> out.txt")
	require.NoError(t, err)
	contents, err := os.ReadFile(filepath.Join(o.Dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\nbye\nagain\n", string(contents))

	_, err = o.run(t, "echo replaced > out.txt")
	require.NoError(t, err)
	contents, err = os.ReadFile(filepath.Join(o.Dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "replaced\n", string(contents))
}

func TestOrchestrator_Run_redirectionOverridesPipe(t *testing.T) {
	o := newTestOrchestrator(t)

	res, err := o.run(t, "echo hi > mid.txt | cat")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Status)
	assert.Empty(t, o.stdout.String())

	contents, err := os.ReadFile(filepath.Join(o.Dir, "mid.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(contents))
}

func TestOrchestrator_Run_missingInput(t *testing.T) {
	o := newTestOrchestrator(t)

	res, err := o.run(t, "cat < missing.txt")
	assert.ErrorIs(t, err, ErrRedirection)
	assert.EqualError(t, err, "missing.txt: no such file or directory")
	assert.Equal(t, StatusFailure, res.Status)
	assert.Equal(t, []int{0}, res.Pids)
}

func TestOrchestrator_Run_notFound(t *testing.T) {
	o := newTestOrchestrator(t)

	res, err := o.run(t, "no-such-command-xyz arg")
	assert.ErrorIs(t, err, ErrCommandNotFound)
	assert.EqualError(t, err, "no-such-command-xyz: command not found")
	assert.Equal(t, StatusNotFound, res.Status)

	var notFound *CommandNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no-such-command-xyz", notFound.Name)
}

func TestOrchestrator_Run_notFoundMidPipeline(t *testing.T) {
	o := newTestOrchestrator(t)

	res, err := o.run(t, "echo hi | no-such-command-xyz | cat")
	assert.ErrorIs(t, err, ErrCommandNotFound)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, StatusNotFound, res.Statuses[1])
	assert.Zero(t, res.Pids[1])
	assert.Empty(t, o.stdout.String())
}

func TestOrchestrator_Run_spawnFailure(t *testing.T) {
	o := newTestOrchestrator(t)
	script := filepath.Join(o.Dir, "script")
	require.NoError(t, os.WriteFile(script, []byte("not an executable format"), 0755))

	res, err := o.run(t, "./script | true")
	assert.Equal(t, 0, res.Status)
	if assert.Error(t, err) {
		assert.ErrorIs(t, err, ErrSpawn)
	}
	assert.Equal(t, StatusCannotSpawn, res.Statuses[0])
}

func TestOrchestrator_Run_notExecutable(t *testing.T) {
	cases := map[string]struct {
		line    string
		message string
	}{
		"no exec bit": {"./notes", "./notes: permission denied"},
		"directory":   {"./dir", "./dir: is a directory"},
		"absolute":    {"DIR/notes arg", "DIR/notes: permission denied"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			o := newTestOrchestrator(t)
			require.NoError(t, os.WriteFile(filepath.Join(o.Dir, "notes"), []byte("#!/bin/sh\n"), 0644))
			require.NoError(t, os.Mkdir(filepath.Join(o.Dir, "dir"), 0755))

			line := strings.ReplaceAll(tc.line, "DIR", o.Dir)
			res, err := o.run(t, line)
			assert.ErrorIs(t, err, ErrSpawn)
			assert.NotErrorIs(t, err, ErrCommandNotFound)
			assert.EqualError(t, err, strings.ReplaceAll(tc.message, "DIR", o.Dir))
			assert.Equal(t, StatusCannotSpawn, res.Status)
			assert.Zero(t, res.Pids[0])
		})
	}
}

func TestOrchestrator_Run_cancel(t *testing.T) {
	o := newTestOrchestrator(t)
	o.WaitDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := o.Run(ctx, mustParsePipeline(t, "sleep 10"))
	require.NoError(t, err)
	assert.Contains(t, []int{130, 137}, res.Status)
	assert.True(t, time.Since(start) < 5*time.Second, "took %s", time.Since(start))
}

func TestOrchestrator_Run_releasesDescriptors(t *testing.T) {
	if _, err := os.Stat("/proc/self/fd"); err != nil {
		t.Skip("requires /proc/self/fd")
	}
	o := newTestOrchestrator(t)

	countFds := func() int {
		entries, err := os.ReadDir("/proc/self/fd")
		require.NoError(t, err)
		return len(entries)
	}

	run := func() {
		_, err := o.run(t, "echo hi > f.txt | cat < f.txt | no-such-command-xyz | cat")
		assert.ErrorIs(t, err, ErrCommandNotFound)
		_, err = o.run(t, "cat < missing.txt | true | true")
		assert.ErrorIs(t, err, ErrRedirection)
	}

	run()
	before := countFds()
	for i := 0; i < 20; i++ {
		run()
	}
	assert.LessOrEqual(t, countFds(), before)
}

func TestOrchestrator_Run_empty(t *testing.T) {
	o := &Orchestrator{}
	res, err := o.Run(context.Background(), &shell.Pipeline{})
	assert.Error(t, err)
	assert.Equal(t, StatusUsage, res.Status)
}
