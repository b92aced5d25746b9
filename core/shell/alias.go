package shell

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AliasTable maps alias names to their definitions.
type AliasTable struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewAliasTable creates an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{aliases: make(map[string]string)}
}

// ValidAliasName reports whether name may be defined as an alias.
func ValidAliasName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isBlank(c) || isOperatorByte(c) || strings.IndexByte(`'"\$/=`, c) >= 0 {
			return false
		}
	}
	return true
}

// Define stores definition under name. The definition is tokenized each time
// the alias is used.
func (t *AliasTable) Define(name, definition string) error {
	if !ValidAliasName(name) {
		return fmt.Errorf("`%s': invalid alias name", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[name] = definition
	return nil
}

// Lookup returns the replacement tokens for name. ok is false if name isn't
// an alias or its definition can't be tokenized.
func (t *AliasTable) Lookup(name string) ([]Token, bool) {
	definition, ok := t.Definition(name)
	if !ok {
		return nil, false
	}
	tokens, err := Tokenize(definition)
	if err != nil {
		return nil, false
	}
	return tokens, true
}

// Definition returns the text name was defined with.
func (t *AliasTable) Definition(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	definition, ok := t.aliases[name]
	return definition, ok
}

// Remove deletes an alias, returning false if it didn't exist.
func (t *AliasTable) Remove(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.aliases[name]
	delete(t.aliases, name)
	return ok
}

// Clear removes all aliases.
func (t *AliasTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases = make(map[string]string)
}

// Names returns the defined aliases in sorted order.
func (t *AliasTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.aliases))
	for name := range t.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isCommandBoundary(tok Token) bool {
	if tok.Kind != Operator {
		return false
	}
	switch tok.Text {
	case OpPipe, OpAnd, OpOr, OpSequential, OpBackground:
		return true
	default:
		return false
	}
}

// ResolveAliases replaces the leading word of every simple command with its
// alias, if it has one. Replacements are passed through expand if it's
// non-nil, then the new leading word is checked again.
//
// A name is substituted at most once per command, so cycles such as
// ll -> "ll -la" end with the name left as a literal word.
func ResolveAliases(tokens []Token, table *AliasTable, expand func([]Token) []Token) []Token {
	if table == nil {
		return tokens
	}

	out := make([]Token, 0, len(tokens))
	for start := 0; start <= len(tokens); {
		end := start
		for end < len(tokens) && !isCommandBoundary(tokens[end]) {
			end++
		}

		out = append(out, resolveCommand(tokens[start:end], table, expand)...)
		if end < len(tokens) {
			out = append(out, tokens[end])
		}
		start = end + 1
	}
	return out
}

func resolveCommand(tokens []Token, table *AliasTable, expand func([]Token) []Token) []Token {
	seen := make(map[string]bool)
	for len(tokens) > 0 {
		first := tokens[0]
		if first.Kind != Word || first.Quoted || seen[first.Text] {
			break
		}

		replacement, ok := table.Lookup(first.Text)
		if !ok {
			break
		}
		seen[first.Text] = true

		if expand != nil {
			replacement = expand(replacement)
		}
		tokens = append(replacement, tokens[1:]...)
	}
	return tokens
}
