package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, line string) *List {
	t.Helper()
	list, err := Parse(mustTokenize(t, line))
	require.NoError(t, err)
	return list
}

func TestParsePipeline(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected []Command
	}{
		"single": {
			line:     "ls -la",
			expected: []Command{{Argv: []string{"ls", "-la"}}},
		},
		"pipeline": {
			line: "cat f | grep x | wc -l",
			expected: []Command{
				{Argv: []string{"cat", "f"}},
				{Argv: []string{"grep", "x"}},
				{Argv: []string{"wc", "-l"}},
			},
		},
		"redirections removed from argv": {
			line: "sort < in -r > out",
			expected: []Command{{
				Argv:   []string{"sort", "-r"},
				Stdin:  &Redirection{Mode: RedirectRead, Target: "in"},
				Stdout: &Redirection{Mode: RedirectTruncate, Target: "out"},
			}},
		},
		"append": {
			line: "echo hi >> log",
			expected: []Command{{
				Argv:   []string{"echo", "hi"},
				Stdout: &Redirection{Mode: RedirectAppend, Target: "log"},
			}},
		},
		"last redirection wins": {
			line: "echo hi > a >> b < c < d",
			expected: []Command{{
				Argv:   []string{"echo", "hi"},
				Stdin:  &Redirection{Mode: RedirectRead, Target: "d"},
				Stdout: &Redirection{Mode: RedirectAppend, Target: "b"},
			}},
		},
		"leading redirection": {
			line: "< in wc",
			expected: []Command{{
				Argv:  []string{"wc"},
				Stdin: &Redirection{Mode: RedirectRead, Target: "in"},
			}},
		},
		"quoted operator is a word": {
			line:     `echo '|' ">"`,
			expected: []Command{{Argv: []string{"echo", "|", ">"}}},
		},
		"redirections per stage": {
			line: "cat < in | sort > out",
			expected: []Command{
				{Argv: []string{"cat"}, Stdin: &Redirection{Mode: RedirectRead, Target: "in"}},
				{Argv: []string{"sort"}, Stdout: &Redirection{Mode: RedirectTruncate, Target: "out"}},
			},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			p, err := ParsePipeline(mustTokenize(t, tc.line))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p.Commands)
		})
	}
}

func TestParse_errors(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected string
	}{
		"trailing pipe":     {"ls |", "syntax error near unexpected token `|'"},
		"leading pipe":      {"| ls", "syntax error near unexpected token `|'"},
		"double pipe stage": {"ls | | wc", "syntax error near unexpected token `|'"},
		"dangling redirect": {"echo hi >", "syntax error near unexpected token `newline'"},
		"operator target":   {"echo hi > | wc", "syntax error near unexpected token `|'"},
		"redirect target":   {"cat < > out", "syntax error near unexpected token `>'"},
		"only redirection":  {"> out", "syntax error: missing command"},
		"leading and":       {"&& ls", "syntax error near unexpected token `&&'"},
		"trailing and":      {"ls &&", "syntax error near unexpected token `newline'"},
		"trailing or":       {"ls ||", "syntax error near unexpected token `newline'"},
		"double semicolon":  {"ls ;; pwd", "syntax error near unexpected token `;'"},
		"background":        {"sleep 1 &", "syntax error near unexpected token `&'"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			list, err := Parse(mustTokenize(t, tc.line))
			assert.Nil(t, list)
			assert.EqualError(t, err, tc.expected)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParse_lists(t *testing.T) {
	list := mustParse(t, "make && ./run || echo failed; echo done;")
	require.Len(t, list.Steps, 4)

	var ops []ListOp
	var names []string
	for _, step := range list.Steps {
		ops = append(ops, step.Op)
		names = append(names, step.Pipeline.Commands[0].Name())
	}
	assert.Equal(t, []ListOp{ListAnd, ListOr, ListSequential, ListEnd}, ops)
	assert.Equal(t, []string{"make", "./run", "echo", "echo"}, names)
}

func TestParse_empty(t *testing.T) {
	for _, line := range []string{"", "   ", "# just a comment"} {
		list := mustParse(t, line)
		assert.Empty(t, list.Steps)
	}
}

func TestCommand_String(t *testing.T) {
	list := mustParse(t, `grep "a b" < in | sort >> 'out file'`)
	require.Len(t, list.Steps, 1)
	assert.Equal(t, `grep 'a b' < in | sort >> 'out file'`, list.Steps[0].Pipeline.String())
}

func TestSplitList(t *testing.T) {
	items, err := SplitList(mustTokenize(t, "cd /tmp && echo $PWD || echo failed $?"))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, []string{"cd", "/tmp"}, texts(items[0].Tokens))
	assert.Equal(t, ListAnd, items[0].Op)
	assert.Equal(t, []string{"echo", "$PWD"}, texts(items[1].Tokens))
	assert.Equal(t, ListOr, items[1].Op)
	assert.Equal(t, []string{"echo", "failed", "$?"}, texts(items[2].Tokens))
	assert.Equal(t, ListEnd, items[2].Op)
}

func TestListOp_Runs(t *testing.T) {
	assert.True(t, ListAnd.Runs(0))
	assert.False(t, ListAnd.Runs(1))
	assert.False(t, ListOr.Runs(0))
	assert.True(t, ListOr.Runs(127))
	assert.True(t, ListSequential.Runs(0))
	assert.True(t, ListSequential.Runs(2))
}
