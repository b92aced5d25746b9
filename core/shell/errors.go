package shell

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenize is the root of all tokenizer failures.
	ErrTokenize = errors.New("tokenize error")

	// ErrSyntax is the root of all parser failures.
	ErrSyntax = errors.New("syntax error")

	// ErrExpansion is reserved for expansion failures. Expansions currently
	// degrade to literal text instead of failing.
	ErrExpansion = errors.New("expansion error")
)

// TokenizeError is returned when a line can't be split into tokens, for
// example because of an unterminated quote.
type TokenizeError struct {
	// Pos is the byte offset in the line where the problem was detected.
	Pos int
	Msg string
}

func (e *TokenizeError) Error() string {
	return e.Msg
}

func (e *TokenizeError) Unwrap() error {
	return ErrTokenize
}

// SyntaxError is returned when the token stream doesn't form a valid list of
// pipelines.
type SyntaxError struct {
	// Near holds the offending token, "newline" if the input ended early.
	Near string
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return "syntax error: " + e.Msg
	}
	return fmt.Sprintf("syntax error near unexpected token `%s'", e.Near)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func unexpected(near string) error {
	return &SyntaxError{Near: near}
}
