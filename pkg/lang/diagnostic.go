package lang

import (
	"errors"
	"fmt"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a positioned problem found while lexing or parsing.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Offset   int      `json:"offset"`
	Length   int      `json:"length"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

// ParseResult is the outcome of parsing a document.
type ParseResult struct {
	Value        any
	LexerErrors  []Diagnostic
	ParserErrors []Diagnostic
}

// HasErrors reports whether lexing or parsing failed.
func (r ParseResult) HasErrors() bool {
	return len(r.LexerErrors) > 0 || len(r.ParserErrors) > 0
}

// Diagnostics returns lexer and parser diagnostics in that order.
func (r ParseResult) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.LexerErrors)+len(r.ParserErrors))
	out = append(out, r.LexerErrors...)
	return append(out, r.ParserErrors...)
}

// Err joins all diagnostics into one error, or returns nil.
func (r ParseResult) Err() error {
	var errs []error
	for _, d := range r.Diagnostics() {
		errs = append(errs, d)
	}
	return errors.Join(errs...)
}
