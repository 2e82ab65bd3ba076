package lang

import (
	"fmt"
	"strings"
)

// Lexer splits text into tokens.
type Lexer interface {
	Tokenize(text string) LexerResult
	TokenTypes() []*TokenType
}

// LexerResult holds visible tokens, hidden tokens and lexing errors.
type LexerResult struct {
	Tokens []Token
	Hidden []Token
	Errors []Diagnostic
}

// DefaultLexer tries token types in order and takes the first non-empty
// match at each position. A keyword match gives way to a strictly longer
// match of one of its longer alternatives.
type DefaultLexer struct {
	types []*TokenType
}

// NewDefaultLexer builds the lexer's token types from the services' grammar
// and token builder.
func NewDefaultLexer(s *Services) (*DefaultLexer, error) {
	if s.Grammar == nil {
		return nil, fmt.Errorf("lexer: no grammar")
	}
	if s.Parser.TokenBuilder == nil {
		return nil, fmt.Errorf("lexer: no token builder")
	}
	types, err := s.Parser.TokenBuilder.BuildTokens(s.Grammar, s.LanguageMetaData.CaseInsensitive)
	if err != nil {
		return nil, fmt.Errorf("lexer: %w", err)
	}
	return &DefaultLexer{types: types}, nil
}

// TokenTypes returns the token types in match order.
func (l *DefaultLexer) TokenTypes() []*TokenType {
	return l.types
}

// Tokenize implements Lexer. Characters no rule matches are reported once
// per run and skipped.
func (l *DefaultLexer) Tokenize(text string) LexerResult {
	var (
		res         LexerResult
		runes       = []rune(text)
		line, col   = 1, 1
		errStart    = -1
		errLine     int
		errCol      int
		flushErrRun = func(end int) {
			if errStart < 0 {
				return
			}
			res.Errors = append(res.Errors, Diagnostic{
				Severity: SeverityError,
				Message:  fmt.Sprintf("unexpected character %q", string(runes[errStart:end])),
				Offset:   errStart,
				Length:   end - errStart,
				Line:     errLine,
				Column:   errCol,
			})
			errStart = -1
		}
	)

	for pos := 0; pos < len(runes); {
		var (
			matched *TokenType
			n       int
		)
		for _, t := range l.types {
			if n = t.match(runes, pos); n > 0 {
				matched = t
				break
			}
		}
		if matched != nil {
			for _, alt := range matched.LongerAlt {
				if m := alt.match(runes, pos); m > n {
					matched, n = alt, m
				}
			}
		}

		if matched == nil {
			if errStart < 0 {
				errStart, errLine, errCol = pos, line, col
			}
			line, col = advance(runes[pos:pos+1], line, col)
			pos++
			continue
		}
		flushErrRun(pos)

		tok := Token{
			Type:   matched,
			Image:  string(runes[pos : pos+n]),
			Offset: pos,
			Line:   line,
			Column: col,
		}
		if matched.Hidden {
			res.Hidden = append(res.Hidden, tok)
		} else {
			res.Tokens = append(res.Tokens, tok)
		}
		line, col = advance(runes[pos:pos+n], line, col)
		pos += n
	}
	flushErrRun(len(runes))
	return res
}

func advance(rs []rune, line, col int) (int, int) {
	for _, r := range rs {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// CommonLexer is the lexer shared by the diagram languages. It terminates
// the input with a newline so statements on the last line end like any
// other.
type CommonLexer struct {
	*DefaultLexer
}

// NewCommonLexer creates a CommonLexer for the given services.
func NewCommonLexer(s *Services) (*CommonLexer, error) {
	l, err := NewDefaultLexer(s)
	if err != nil {
		return nil, err
	}
	return &CommonLexer{DefaultLexer: l}, nil
}

// Tokenize implements Lexer.
func (l *CommonLexer) Tokenize(text string) LexerResult {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return l.DefaultLexer.Tokenize(text)
}
