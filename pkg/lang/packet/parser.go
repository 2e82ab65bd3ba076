package packet

import (
	"fmt"

	"github.com/matzehuels/diagramkit/pkg/lang"
)

// Parser parses packet documents into a [Packet].
type Parser struct {
	lexer     lang.Lexer
	converter lang.ValueConverter
}

// NewParser creates a parser using the services' lexer and value converter.
func NewParser(s *lang.Services) (*Parser, error) {
	if s.Parser.Lexer == nil || s.Parser.ValueConverter == nil {
		return nil, fmt.Errorf("packet parser: lexer and value converter required")
	}
	return &Parser{lexer: s.Parser.Lexer, converter: s.Parser.ValueConverter}, nil
}

// Parse implements lang.Parser. The result's Value is a *Packet, which is
// populated as far as parsing got even when there are errors.
func (p *Parser) Parse(text string) lang.ParseResult {
	lexed := p.lexer.Tokenize(text)
	st := &state{toks: lexed.Tokens, conv: p.converter}
	ast := st.document()
	return lang.ParseResult{
		Value:        ast,
		LexerErrors:  lexed.Errors,
		ParserErrors: st.errs,
	}
}

type state struct {
	toks []lang.Token
	pos  int
	conv lang.ValueConverter
	errs []lang.Diagnostic
}

func (s *state) peek() lang.Token {
	if s.pos < len(s.toks) {
		return s.toks[s.pos]
	}
	t := lang.Token{Line: 1, Column: 1}
	if n := len(s.toks); n > 0 {
		last := s.toks[n-1]
		t.Offset = last.Offset + len([]rune(last.Image))
		t.Line, t.Column = last.Line, last.Column+len([]rune(last.Image))
	}
	return t
}

func (s *state) atEOF() bool { return s.pos >= len(s.toks) }

func (s *state) is(name string) bool {
	return !s.atEOF() && s.toks[s.pos].TypeName() == name
}

func (s *state) next() lang.Token {
	t := s.peek()
	if !s.atEOF() {
		s.pos++
	}
	return t
}

func (s *state) errorf(t lang.Token, format string, args ...any) {
	s.errs = append(s.errs, lang.Diagnostic{
		Severity: lang.SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Offset:   t.Offset,
		Length:   len([]rune(t.Image)),
		Line:     t.Line,
		Column:   t.Column,
	})
}

// recover skips to the start of the next line.
func (s *state) recover() {
	for !s.atEOF() && !s.is(lang.TerminalNewline) {
		s.pos++
	}
}

func describe(t lang.Token) string {
	if t.Type == nil {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Image)
}

func (s *state) skipNewlines() {
	for s.is(lang.TerminalNewline) {
		s.pos++
	}
}

// document = NEWLINE* header (titles | block | NEWLINE)*
func (s *state) document() *Packet {
	ast := &Packet{Blocks: []Block{}}
	s.skipNewlines()

	if !s.is("packet-beta") && !s.is("packet") {
		s.errorf(s.peek(), "expected diagram header \"packet-beta\" or \"packet\", found %s", describe(s.peek()))
		return ast
	}
	s.next()

	for !s.atEOF() {
		t := s.peek()
		switch t.TypeName() {
		case lang.TerminalNewline:
			s.next()
		case lang.TerminalTitle, lang.TerminalAccTitle, lang.TerminalAccDescr:
			s.next()
			v, err := s.conv.Convert(t.TypeName(), t.Image)
			if err != nil {
				s.errorf(t, "%v", err)
			} else {
				setCommon(ast, t.TypeName(), fmt.Sprint(v))
			}
			s.eol()
		case lang.TerminalInt, "+":
			if b, ok := s.block(); ok {
				ast.Blocks = append(ast.Blocks, b)
			}
		default:
			s.errorf(t, "expected a block, title or accessibility statement, found %s", describe(t))
			s.recover()
		}
	}
	return ast
}

func setCommon(ast *Packet, rule, v string) {
	switch rule {
	case lang.TerminalTitle:
		ast.Title = v
	case lang.TerminalAccTitle:
		ast.AccTitle = v
	case lang.TerminalAccDescr:
		ast.AccDescr = v
	}
}

// block = (INT ('-' INT)? | '+' INT) ':' STRING EOL
func (s *state) block() (Block, bool) {
	b := Block{Line: s.peek().Line}

	if s.is("+") {
		s.next()
		bits, ok := s.number()
		if !ok {
			return b, false
		}
		b.Bits = &bits
	} else {
		start, ok := s.number()
		if !ok {
			return b, false
		}
		b.Start = &start
		if s.is("-") {
			s.next()
			end, ok := s.number()
			if !ok {
				return b, false
			}
			b.End = &end
		}
	}

	if !s.is(":") {
		s.errorf(s.peek(), "expected \":\", found %s", describe(s.peek()))
		s.recover()
		return b, false
	}
	s.next()

	if !s.is(lang.TerminalString) {
		s.errorf(s.peek(), "expected a quoted label, found %s", describe(s.peek()))
		s.recover()
		return b, false
	}
	t := s.next()
	v, err := s.conv.Convert(lang.TerminalString, t.Image)
	if err != nil {
		s.errorf(t, "%v", err)
		s.recover()
		return b, false
	}
	b.Label = fmt.Sprint(v)
	return b, s.eol()
}

func (s *state) number() (int, bool) {
	if !s.is(lang.TerminalInt) {
		s.errorf(s.peek(), "expected a number, found %s", describe(s.peek()))
		s.recover()
		return 0, false
	}
	t := s.next()
	v, err := s.conv.Convert(lang.TerminalInt, t.Image)
	if err != nil {
		s.errorf(t, "%v", err)
		s.recover()
		return 0, false
	}
	n, ok := v.(int)
	if !ok {
		s.errorf(t, "expected an integer, got %T", v)
		s.recover()
		return 0, false
	}
	return n, true
}

// eol = NEWLINE+ | EOF
func (s *state) eol() bool {
	if s.atEOF() {
		return true
	}
	if !s.is(lang.TerminalNewline) {
		s.errorf(s.peek(), "expected end of line, found %s", describe(s.peek()))
		s.recover()
		return false
	}
	s.skipNewlines()
	return true
}

// Parse parses text with services built by [CreateServices] and returns the
// packet. Lexer and parser diagnostics are joined into the error.
func Parse(s *lang.Services, text string) (*Packet, error) {
	res := s.Parse(text)
	ast, ok := res.Value.(*Packet)
	if !ok {
		return nil, fmt.Errorf("parse: %s services produced %T", s.LanguageMetaData.LanguageID, res.Value)
	}
	if err := res.Err(); err != nil {
		return ast, err
	}
	return ast, nil
}
