package shell

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Kind classifies a token.
type Kind int

const (
	// Word is a command name, argument or redirection target.
	Word Kind = iota
	// Operator is one of the control or redirection operators.
	Operator
)

func (k Kind) String() string {
	if k == Operator {
		return "operator"
	}
	return "word"
}

// Operators recognized by the tokenizer.
const (
	OpPipe           = "|"
	OpRedirectOut    = ">"
	OpRedirectAppend = ">>"
	OpRedirectIn     = "<"
	OpAnd            = "&&"
	OpOr             = "||"
	OpSequential     = ";"
	OpBackground     = "&"
)

// Quote records how a run of characters inside a word was quoted.
type Quote int

const (
	Unquoted Quote = iota
	SingleQuoted
	DoubleQuoted
	// Escaped characters were preceded by a backslash and are always literal.
	Escaped
)

// Segment is a run of characters in a word that share the same quoting.
type Segment struct {
	Text  string
	Quote Quote

	// expanded is set for text produced by an expansion pass so that later
	// passes don't treat it as user input (e.g. a "~" coming from $VAR).
	expanded bool
}

// Token is a classified lexical unit.
type Token struct {
	Text string
	Kind Kind
	// Quoted is set if any part of the word came from quotes or a backslash
	// escape. Quoted words are never glob expanded or treated as aliases.
	Quoted bool

	// Segments holds the quoting breakdown of Text for words.
	Segments []Segment
}

// NewWord creates an unquoted word token.
func NewWord(text string) Token {
	return newWord([]Segment{{Text: text}})
}

// NewOperator creates an operator token.
func NewOperator(op string) Token {
	return Token{Text: op, Kind: Operator}
}

func newWord(segments []Segment) Token {
	var sb strings.Builder
	quoted := false
	for _, seg := range segments {
		sb.WriteString(seg.Text)
		if seg.Quote != Unquoted {
			quoted = true
		}
	}

	return Token{
		Text:     sb.String(),
		Kind:     Word,
		Quoted:   quoted,
		Segments: segments,
	}
}

// IsOperator returns true if the token is the given operator.
func (t Token) IsOperator(op string) bool {
	return t.Kind == Operator && t.Text == op
}

func (t Token) String() string {
	if t.Kind == Operator {
		return t.Text
	}
	return QuoteWord(t.Text)
}

type lexState int

const (
	stateUnquoted lexState = iota
	stateSingleQuote
	stateDoubleQuote
	stateEscape
)

type lexer struct {
	tokens   []Token
	segments []Segment
	inWord   bool
}

// begin marks the start of a word, even if no characters follow, so that
// "" yields an empty word.
func (l *lexer) begin() {
	l.inWord = true
}

func (l *lexer) add(c byte, q Quote) {
	l.inWord = true
	if n := len(l.segments); n > 0 && l.segments[n-1].Quote == q {
		l.segments[n-1].Text += string(c)
		return
	}
	l.segments = append(l.segments, Segment{Text: string(c), Quote: q})
}

func (l *lexer) finish() {
	if !l.inWord {
		return
	}
	if len(l.segments) == 0 {
		// Empty quotes: keep a quoted empty segment so the word survives.
		l.segments = []Segment{{Quote: DoubleQuoted}}
	}
	l.tokens = append(l.tokens, newWord(l.segments))
	l.segments = nil
	l.inWord = false
}

func (l *lexer) operator(op string) {
	l.finish()
	l.tokens = append(l.tokens, NewOperator(op))
}

func isOperatorByte(c byte) bool {
	return strings.IndexByte("|<>&;", c) >= 0
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Tokenize splits a line into words and operators.
//
// Inside single quotes nothing is special. Inside double quotes a backslash
// only escapes '"', '\' and '$'. Outside quotes blanks separate words, a
// backslash escapes the next character, '#' at the start of a word begins a
// comment, and '|', '<', '>', '>>', '&&', '||', ';' and '&' are operators
// that never join adjacent word characters.
func Tokenize(line string) ([]Token, error) {
	l := &lexer{}
	state := stateUnquoted
	escapeFrom := stateUnquoted
	quoteStart := 0

	for i := 0; i < len(line); i++ {
		c := line[i]

		switch state {
		case stateUnquoted:
			switch {
			case c == '\\':
				l.begin()
				escapeFrom, state = stateUnquoted, stateEscape
			case c == '\'':
				l.begin()
				quoteStart, state = i, stateSingleQuote
			case c == '"':
				l.begin()
				quoteStart, state = i, stateDoubleQuote
			case isBlank(c):
				l.finish()
			case c == '#' && !l.inWord:
				i = len(line)
			case isOperatorByte(c):
				op := string(c)
				if i+1 < len(line) && line[i+1] == c && (c == '>' || c == '|' || c == '&') {
					op += string(c)
					i++
				}
				l.operator(op)
			default:
				l.add(c, Unquoted)
			}

		case stateSingleQuote:
			if c == '\'' {
				state = stateUnquoted
				continue
			}
			l.add(c, SingleQuoted)

		case stateDoubleQuote:
			switch c {
			case '"':
				state = stateUnquoted
			case '\\':
				escapeFrom, state = stateDoubleQuote, stateEscape
			default:
				l.add(c, DoubleQuoted)
			}

		case stateEscape:
			if escapeFrom == stateDoubleQuote && strings.IndexByte(`"\$`, c) < 0 {
				// Not an escape inside double quotes, keep the backslash.
				l.add('\\', DoubleQuoted)
				l.add(c, DoubleQuoted)
			} else {
				l.add(c, Escaped)
			}
			state = escapeFrom
		}
	}

	switch state {
	case stateSingleQuote:
		return nil, &TokenizeError{Pos: quoteStart, Msg: "unexpected EOF while looking for matching `''"}
	case stateDoubleQuote:
		return nil, &TokenizeError{Pos: quoteStart, Msg: "unexpected EOF while looking for matching `\"'"}
	case stateEscape:
		if escapeFrom == stateDoubleQuote {
			return nil, &TokenizeError{Pos: quoteStart, Msg: "unexpected EOF while looking for matching `\"'"}
		}
		return nil, &TokenizeError{Pos: len(line) - 1, Msg: "unexpected EOF after `\\'"}
	}

	l.finish()
	return l.tokens, nil
}

// QuoteWord returns s quoted so that Tokenize would read it back as a single
// word with the same text. Single quotes in s are written as \'.
func QuoteWord(s string) string {
	if s == "" {
		return "''"
	}

	parts := strings.Split(s, "'")
	for i, part := range parts {
		if part == "" {
			continue
		}
		quoted, err := syntax.Quote(part, syntax.LangPOSIX)
		if err != nil {
			// Non-printable bytes have no POSIX escape, but are literal in
			// single quotes.
			quoted = "'" + part + "'"
		}
		parts[i] = quoted
	}
	return strings.Join(parts, `\'`)
}
