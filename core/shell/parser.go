package shell

// The parser follows the POSIX shell steps loosely:
//
// 1. The input is broken into tokens: words and operators (Tokenize).
// 2. Expansions are performed on words (Expander) and the leading word of
//    each simple command is checked for aliases (ResolveAliases).
// 3. The tokens are split into lists of pipelines of simple commands (Parse).
// 4. Redirection operators and their operands are removed from each command's
//    argument list.
//
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html

import (
	"strings"
)

// RedirectMode is the way a redirection target is opened.
type RedirectMode int

const (
	// RedirectRead opens an existing file as standard input (<).
	RedirectRead RedirectMode = iota
	// RedirectTruncate creates or truncates a file for standard output (>).
	RedirectTruncate
	// RedirectAppend creates or appends to a file for standard output (>>).
	RedirectAppend
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectRead:
		return OpRedirectIn
	case RedirectAppend:
		return OpRedirectAppend
	default:
		return OpRedirectOut
	}
}

func redirectMode(tok Token) (RedirectMode, bool) {
	if tok.Kind != Operator {
		return 0, false
	}
	switch tok.Text {
	case OpRedirectIn:
		return RedirectRead, true
	case OpRedirectOut:
		return RedirectTruncate, true
	case OpRedirectAppend:
		return RedirectAppend, true
	default:
		return 0, false
	}
}

// Redirection routes a standard stream of a command to a file.
type Redirection struct {
	Mode   RedirectMode
	Target string
}

func (r Redirection) String() string {
	return r.Mode.String() + " " + QuoteWord(r.Target)
}

// Command is a simple command: an argument vector and its redirections.
type Command struct {
	Argv []string
	// Stdin is the last input redirection, if any.
	Stdin *Redirection
	// Stdout is the last output redirection, if any.
	Stdout *Redirection
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.Argv[0]
}

// Args returns the arguments after the command name.
func (c *Command) Args() []string {
	return c.Argv[1:]
}

// Redirections returns the redirections that apply to the command.
func (c *Command) Redirections() []Redirection {
	var out []Redirection
	if c.Stdin != nil {
		out = append(out, *c.Stdin)
	}
	if c.Stdout != nil {
		out = append(out, *c.Stdout)
	}
	return out
}

func (c *Command) String() string {
	var parts []string
	for _, arg := range c.Argv {
		parts = append(parts, QuoteWord(arg))
	}
	for _, r := range c.Redirections() {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " ")
}

// Pipeline is a chain of commands whose standard output feeds the next
// command's standard input.
type Pipeline struct {
	Commands []Command
}

func (p *Pipeline) String() string {
	var parts []string
	for i := range p.Commands {
		parts = append(parts, p.Commands[i].String())
	}
	return strings.Join(parts, " | ")
}

// ListOp joins a pipeline to the one that follows it.
type ListOp string

const (
	// ListEnd marks the final pipeline.
	ListEnd ListOp = ""
	// ListAnd runs the next pipeline only if this one succeeded.
	ListAnd ListOp = OpAnd
	// ListOr runs the next pipeline only if this one failed.
	ListOr ListOp = OpOr
	// ListSequential always runs the next pipeline.
	ListSequential ListOp = OpSequential
)

// Step is one pipeline of a list.
type Step struct {
	Pipeline *Pipeline
	Op       ListOp
}

// List is a sequence of pipelines joined by &&, || and ;.
type List struct {
	Steps []Step
}

func listOperator(tok Token) ListOp {
	if tok.Kind != Operator {
		return ListEnd
	}
	switch tok.Text {
	case OpAnd:
		return ListAnd
	case OpOr:
		return ListOr
	case OpSequential:
		return ListSequential
	default:
		return ListEnd
	}
}

// Runs reports whether the pipeline following op runs, given the exit status
// of the pipeline before it.
func (op ListOp) Runs(status int) bool {
	switch op {
	case ListAnd:
		return status == 0
	case ListOr:
		return status != 0
	default:
		return true
	}
}

// ListItem is the unparsed tokens of one pipeline of a list.
type ListItem struct {
	Tokens []Token
	Op     ListOp
}

// SplitList splits tokens at the list operators &&, || and ; without parsing
// the pipelines between them, so each can be expanded right before it runs.
func SplitList(tokens []Token) ([]ListItem, error) {
	var items []ListItem
	var current []Token
	for _, tok := range tokens {
		op := listOperator(tok)
		if op == ListEnd {
			current = append(current, tok)
			continue
		}
		if len(current) == 0 || isRedirect(current[len(current)-1]) {
			return nil, unexpected(tok.Text)
		}
		items = append(items, ListItem{Tokens: current, Op: op})
		current = nil
	}

	if len(current) > 0 {
		return append(items, ListItem{Tokens: current}), nil
	}

	n := len(items)
	switch {
	case n == 0:
		return nil, nil
	case items[n-1].Op == ListSequential:
		// A trailing ; is allowed.
		items[n-1].Op = ListEnd
		return items, nil
	default:
		return nil, unexpected("newline")
	}
}

// Parse splits tokens into a list of pipelines. An empty token stream gives
// an empty list.
func Parse(tokens []Token) (*List, error) {
	items, err := SplitList(tokens)
	if err != nil {
		return nil, err
	}

	list := &List{}
	for _, item := range items {
		p, err := ParsePipeline(item.Tokens)
		if err != nil {
			return nil, err
		}
		list.Steps = append(list.Steps, Step{Pipeline: p, Op: item.Op})
	}
	return list, nil
}

// ParsePipeline splits tokens at | operators and parses each stage.
func ParsePipeline(tokens []Token) (*Pipeline, error) {
	if len(tokens) == 0 {
		return nil, unexpected("newline")
	}

	p := &Pipeline{}
	var current []Token
	for _, tok := range tokens {
		if !tok.IsOperator(OpPipe) {
			current = append(current, tok)
			continue
		}
		if len(current) == 0 || isRedirect(current[len(current)-1]) {
			return nil, unexpected(OpPipe)
		}
		cmd, err := parseCommand(current)
		if err != nil {
			return nil, err
		}
		p.Commands = append(p.Commands, cmd)
		current = nil
	}

	if len(current) == 0 {
		return nil, unexpected(OpPipe)
	}
	cmd, err := parseCommand(current)
	if err != nil {
		return nil, err
	}
	p.Commands = append(p.Commands, cmd)
	return p, nil
}

// parseCommand extracts redirections from a pipeline stage. Later
// redirections of the same direction replace earlier ones.
func parseCommand(tokens []Token) (Command, error) {
	var cmd Command
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == Word {
			cmd.Argv = append(cmd.Argv, tok.Text)
			continue
		}

		mode, ok := redirectMode(tok)
		if !ok {
			return Command{}, unexpected(tok.Text)
		}
		if i+1 >= len(tokens) {
			return Command{}, unexpected("newline")
		}
		target := tokens[i+1]
		if target.Kind != Word {
			return Command{}, unexpected(target.Text)
		}
		i++

		r := &Redirection{Mode: mode, Target: target.Text}
		if mode == RedirectRead {
			cmd.Stdin = r
		} else {
			cmd.Stdout = r
		}
	}

	if len(cmd.Argv) == 0 {
		return Command{}, &SyntaxError{Msg: "missing command"}
	}
	return cmd, nil
}
