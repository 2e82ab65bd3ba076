package lang

import (
	"sort"
	"strings"
)

// TokenBuilder turns a grammar into the ordered token types the lexer tries.
type TokenBuilder interface {
	BuildTokens(g *Grammar, caseInsensitive bool) ([]*TokenType, error)
}

// DefaultTokenBuilder orders tokens the way a first-match lexer needs them:
// terminals that accept whitespace first, then keywords longest first, then
// the remaining terminals in grammar order. Each keyword carries the
// terminals that may extend its text as longer alternatives, so "---" opens
// front matter instead of lexing as three "-" keywords.
type DefaultTokenBuilder struct {
	// KeywordHook, when set, may rewrite a keyword's pattern before it is
	// compiled.
	KeywordHook func(keyword, pattern string) string
}

// NewDefaultTokenBuilder returns a token builder without keyword hooks.
func NewDefaultTokenBuilder() *DefaultTokenBuilder {
	return &DefaultTokenBuilder{}
}

// BuildTokens implements TokenBuilder.
func (b *DefaultTokenBuilder) BuildTokens(g *Grammar, caseInsensitive bool) ([]*TokenType, error) {
	terminals := make([]*TokenType, 0, len(g.Terminals))
	for _, t := range g.Terminals {
		tt, err := NewTokenType(t.Name, t.Pattern, t.Hidden)
		if err != nil {
			return nil, err
		}
		terminals = append(terminals, tt)
	}

	keywords, err := b.buildKeywords(g.Keywords, caseInsensitive)
	if err != nil {
		return nil, err
	}

	var leading, trailing []*TokenType
	for _, t := range terminals {
		if t.matchesWhitespace() {
			leading = append(leading, t)
		} else {
			trailing = append(trailing, t)
		}
	}

	for _, kw := range keywords {
		for _, t := range trailing {
			if extends(t, kw.Name) {
				kw.LongerAlt = append(kw.LongerAlt, t)
			}
		}
	}

	out := make([]*TokenType, 0, len(terminals)+len(keywords))
	out = append(out, leading...)
	out = append(out, keywords...)
	out = append(out, trailing...)
	return out, nil
}

func (b *DefaultTokenBuilder) buildKeywords(keywords []string, caseInsensitive bool) ([]*TokenType, error) {
	sorted := append([]string(nil), keywords...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	out := make([]*TokenType, 0, len(sorted))
	for _, kw := range sorted {
		pattern := KeywordPattern(kw, caseInsensitive)
		if b.KeywordHook != nil {
			pattern = b.KeywordHook(kw, pattern)
		}
		tt, err := NewTokenType(kw, pattern, false)
		if err != nil {
			return nil, err
		}
		tt.Keyword = true
		out = append(out, tt)
	}
	return out, nil
}

// extends reports whether terminal t can match a text starting with keyword:
// either t matches the keyword itself, or the literal prefix of t's pattern
// and the keyword agree.
func extends(t *TokenType, keyword string) bool {
	if t.match([]rune(keyword), 0) == len([]rune(keyword)) {
		return true
	}
	lit := literalPrefix(t.Pattern)
	if lit == "" {
		return false
	}
	return strings.HasPrefix(lit, keyword) || strings.HasPrefix(keyword, lit)
}

// literalPrefix returns the characters pattern matches literally before its
// first operator.
func literalPrefix(pattern string) string {
	var (
		b  strings.Builder
		rs = []rune(pattern)
	)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs) && strings.ContainsRune(`\.-[](){}|?*+^$/:`, rs[i+1]):
			i++
			r = rs[i]
		case strings.ContainsRune(`\.[](){}|?*+^$`, r):
			return b.String()
		}
		if i+1 < len(rs) && strings.ContainsRune("?*{", rs[i+1]) {
			return b.String()
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewBoundaryTokenBuilder returns a token builder where the listed keywords
// only match when followed by whitespace, a comment or the end of input, so
// "packet-betaX" is not read as a header.
func NewBoundaryTokenBuilder(keywords ...string) *DefaultTokenBuilder {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return &DefaultTokenBuilder{
		KeywordHook: func(keyword, pattern string) string {
			if !set[keyword] {
				return pattern
			}
			return pattern + `(?:(?=%%)|(?!\S))`
		},
	}
}
