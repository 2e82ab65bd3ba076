package lang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValueConverter turns a token image into the value stored in the AST.
type ValueConverter interface {
	Convert(rule, image string) (any, error)
}

var (
	accDescrRe = regexp.MustCompile(`accDescr(?:[\t ]*:([^\n\r]*)|\s*{([^}]*)})`)
	accTitleRe = regexp.MustCompile(`accTitle[\t ]*:([^\n\r]*)`)
	titleRe    = regexp.MustCompile(`title([\t ][^\n\r]*|)`)

	multiSpaceRe   = regexp.MustCompile(`[\t ]{2,}`)
	leadingSpaceRe = regexp.MustCompile(`(?m)^\s*`)
	trailingRe     = regexp.MustCompile(`(?m)\s+$`)
	multiNewlineRe = regexp.MustCompile(`[\n\r]{2,}`)
)

// DefaultValueConverter unquotes strings and parses numbers. Anything else
// is returned as the raw image.
type DefaultValueConverter struct{}

// Convert implements ValueConverter.
func (DefaultValueConverter) Convert(rule, image string) (any, error) {
	switch rule {
	case TerminalString:
		return unquote(image), nil
	case TerminalInt:
		n, err := strconv.Atoi(image)
		if err != nil {
			return nil, fmt.Errorf("convert %s %q: %w", rule, image, err)
		}
		return n, nil
	case TerminalFloat:
		f, err := strconv.ParseFloat(image, 64)
		if err != nil {
			return nil, fmt.Errorf("convert %s %q: %w", rule, image, err)
		}
		return f, nil
	}
	return image, nil
}

// CommonValueConverter extends [DefaultValueConverter] for the diagram
// languages: titles and accessibility lines are reduced to their text.
type CommonValueConverter struct {
	DefaultValueConverter

	// Custom runs before the built-in conversions; returning ok=false falls
	// through.
	Custom func(rule, image string) (value any, ok bool, err error)
}

// NewCommonValueConverter returns a converter without custom rules.
func NewCommonValueConverter() *CommonValueConverter {
	return &CommonValueConverter{}
}

// Convert implements ValueConverter.
func (c *CommonValueConverter) Convert(rule, image string) (any, error) {
	if c.Custom != nil {
		if v, ok, err := c.Custom(rule, image); ok || err != nil {
			return v, err
		}
	}
	if v, ok := convertCommon(rule, image); ok {
		return v, nil
	}
	return c.DefaultValueConverter.Convert(rule, image)
}

func convertCommon(rule, image string) (string, bool) {
	var re *regexp.Regexp
	switch rule {
	case TerminalAccDescr:
		re = accDescrRe
	case TerminalAccTitle:
		re = accTitleRe
	case TerminalTitle:
		re = titleRe
	default:
		return "", false
	}

	m := re.FindStringSubmatchIndex(image)
	if m == nil {
		return "", false
	}
	if m[2] >= 0 {
		s := strings.TrimSpace(image[m[2]:m[3]])
		return multiSpaceRe.ReplaceAllString(s, " "), true
	}
	if len(m) > 4 && m[4] >= 0 {
		s := image[m[4]:m[5]]
		s = leadingSpaceRe.ReplaceAllString(s, "")
		s = trailingRe.ReplaceAllString(s, "")
		s = multiSpaceRe.ReplaceAllString(s, " ")
		s = multiNewlineRe.ReplaceAllString(s, "\n")
		return s, true
	}
	return "", false
}

// unquote strips the surrounding quotes of a string literal.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
