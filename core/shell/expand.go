package shell

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Expander applies variable, tilde and glob expansion to tokens.
type Expander struct {
	// Lookup resolves variable names, including the special names "?" and "$".
	Lookup func(name string) (string, bool)
	// Home replaces a leading "~". If empty, tildes are left alone.
	Home string
	// Dir is the directory relative glob patterns are matched against.
	Dir string
	// Fs is the filesystem globs are matched against, the OS if nil.
	Fs afero.Fs
}

// Expand runs variable, tilde and glob expansion, in that order.
func (e *Expander) Expand(tokens []Token) []Token {
	tokens = e.ExpandVariables(tokens)
	tokens = e.ExpandTilde(tokens)
	return e.ExpandGlobs(tokens)
}

// ExpandVariables replaces $NAME and ${NAME} in unquoted and double quoted
// text. Unset variables expand to nothing, an unquoted word that expands to
// nothing is removed.
func (e *Expander) ExpandVariables(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != Word || !strings.Contains(tok.Text, "$") {
			out = append(out, tok)
			continue
		}

		var segments []Segment
		for _, seg := range tok.Segments {
			if seg.Quote == Unquoted || seg.Quote == DoubleQuoted {
				segments = append(segments, e.expandSegment(seg)...)
			} else {
				segments = append(segments, seg)
			}
		}

		expanded := newWord(segments)
		if !expanded.Quoted && expanded.Text == "" {
			continue
		}
		out = append(out, expanded)
	}
	return out
}

func (e *Expander) expandSegment(seg Segment) []Segment {
	var out []Segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, Segment{Text: lit.String(), Quote: seg.Quote})
			lit.Reset()
		}
	}

	s := seg.Text
	for i := 0; i < len(s); {
		if s[i] != '$' {
			lit.WriteByte(s[i])
			i++
			continue
		}

		name, width := scanVariable(s[i:])
		if width == 0 {
			lit.WriteByte('$')
			i++
			continue
		}

		flush()
		if value := e.lookup(name); value != "" {
			out = append(out, Segment{Text: value, Quote: seg.Quote, expanded: true})
		}
		i += width
	}
	flush()

	if len(out) == 0 && seg.Quote == DoubleQuoted {
		// "$UNSET" still yields an (empty) quoted word.
		out = append(out, Segment{Quote: DoubleQuoted})
	}
	return out
}

func (e *Expander) lookup(name string) string {
	if e.Lookup == nil {
		return ""
	}
	value, _ := e.Lookup(name)
	return value
}

// scanVariable reads a variable reference at the start of s, which begins
// with '$'. It returns the name and the number of bytes consumed, or a zero
// width if s doesn't start with a well formed reference.
func scanVariable(s string) (string, int) {
	if len(s) < 2 {
		return "", 0
	}

	switch c := s[1]; {
	case c == '{':
		end := strings.IndexByte(s[2:], '}')
		if end <= 0 {
			// Unterminated or empty braces are literal.
			return "", 0
		}
		return s[2 : 2+end], end + 3
	case c == '?' || c == '$':
		return string(c), 2
	case isNameStart(c):
		end := 2
		for end < len(s) && isNameChar(s[end]) {
			end++
		}
		return s[1:end], end
	default:
		return "", 0
	}
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}

// IsValidName reports whether s can be used as a variable name.
func IsValidName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

// ExpandTilde replaces an unquoted leading "~" or "~/" with the home
// directory. "~user" forms are left as they are.
func (e *Expander) ExpandTilde(tokens []Token) []Token {
	if e.Home == "" {
		return tokens
	}

	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		out[i] = tok
		if tok.Kind != Word || len(tok.Segments) == 0 {
			continue
		}

		first := tok.Segments[0]
		if first.Quote != Unquoted || first.expanded || !strings.HasPrefix(first.Text, "~") {
			continue
		}

		rest := first.Text[1:]
		switch {
		case rest == "" && len(tok.Segments) == 1:
		case strings.HasPrefix(rest, "/"):
		default:
			continue
		}

		segments := append([]Segment{{Text: e.Home + rest, expanded: true}}, tok.Segments[1:]...)
		out[i] = newWord(segments)
	}
	return out
}

// ExpandGlobs replaces unquoted words containing '*' or '?' with the sorted
// list of matching paths. Patterns that match nothing are kept literally.
// Redirection targets are never expanded.
func (e *Expander) ExpandGlobs(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for i, tok := range tokens {
		if tok.Kind != Word || tok.Quoted || !strings.ContainsAny(tok.Text, "*?") {
			out = append(out, tok)
			continue
		}
		if i > 0 && isRedirect(tokens[i-1]) {
			out = append(out, tok)
			continue
		}

		matches := e.Glob(tok.Text)
		if len(matches) == 0 {
			out = append(out, tok)
			continue
		}
		for _, m := range matches {
			out = append(out, NewWord(m))
		}
	}
	return out
}

// Glob returns the sorted paths matching pattern, relative paths are matched
// against Dir and returned relative to it.
func (e *Expander) Glob(pattern string) []string {
	meta := strings.IndexAny(pattern, "*?[{")
	if meta < 0 {
		return nil
	}
	prefix := pattern[:strings.LastIndexByte(pattern[:meta], '/')+1]
	rel := pattern[len(prefix):]

	root := prefix
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(e.Dir, root)
	}

	fs := e.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, root)), rel)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if hiddenMismatch(rel, m) {
			continue
		}
		out = append(out, prefix+m)
	}
	sort.Strings(out)
	return out
}

// hiddenMismatch reports whether match has a dot-file component that the
// pattern didn't ask for explicitly.
func hiddenMismatch(pattern, match string) bool {
	patParts := strings.Split(pattern, "/")
	for i, part := range strings.Split(match, "/") {
		if !strings.HasPrefix(part, ".") {
			continue
		}
		if i >= len(patParts) || !strings.HasPrefix(patParts[i], ".") {
			return true
		}
	}
	return false
}

func isRedirect(tok Token) bool {
	_, ok := redirectMode(tok)
	return ok
}
