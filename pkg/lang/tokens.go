package lang

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// TokenType is a compiled lexer rule.
type TokenType struct {
	Name    string
	Pattern string // Source pattern, unanchored
	Hidden  bool
	Keyword bool

	// LongerAlt lists terminals tried after a keyword matches; the longest
	// match among them replaces the keyword.
	LongerAlt []*TokenType

	re *regexp2.Regexp
}

// NewTokenType compiles pattern into a token type. The pattern is anchored
// so it only matches at the lexer position.
func NewTokenType(name, pattern string, hidden bool) (*TokenType, error) {
	re, err := regexp2.Compile(`\G(?:`+pattern+`)`, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile token %s: %w", name, err)
	}
	return &TokenType{Name: name, Pattern: pattern, Hidden: hidden, re: re}, nil
}

// KeywordPattern returns the pattern matching keyword literally.
func KeywordPattern(keyword string, caseInsensitive bool) string {
	p := regexp2.Escape(keyword)
	if caseInsensitive {
		p = "(?i:" + p + ")"
	}
	return p
}

// match returns the length in runes of the match at pos, or -1.
func (t *TokenType) match(text []rune, pos int) int {
	m, err := t.re.FindRunesMatchStartingAt(text, pos)
	if err != nil || m == nil || m.Index != pos {
		return -1
	}
	return m.Length
}

// matchesWhitespace reports whether the rule accepts a whitespace-only
// string, which moves it to the front of the token order.
func (t *TokenType) matchesWhitespace() bool {
	for _, ws := range []string{" ", "\t", "\n", "\r\n"} {
		if n := t.match([]rune(ws), 0); n > 0 && strings.TrimSpace(ws[:n]) == "" {
			return true
		}
	}
	return false
}

// Token is a lexed token.
type Token struct {
	Type   *TokenType
	Image  string
	Offset int // Rune offset into the input
	Line   int // 1-based
	Column int // 1-based
}

// TypeName returns the token type's name, or "EOF" for a nil type.
func (t Token) TypeName() string {
	if t.Type == nil {
		return "EOF"
	}
	return t.Type.Name
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.TypeName(), t.Image, t.Line, t.Column)
}
