package lang

// Terminal is a grammar terminal rule backed by a regular expression.
type Terminal struct {
	Name    string
	Pattern string // regexp2 syntax, unanchored
	Hidden  bool   // Matched but not handed to the parser
}

// Grammar is the static description of a language that the token builder
// turns into token types.
type Grammar struct {
	Name      string
	Keywords  []string
	Terminals []Terminal
}

// LanguageMetaData identifies a language in the service registry.
type LanguageMetaData struct {
	LanguageID      string
	FileExtensions  []string
	CaseInsensitive bool
}

// Terminal names shared by the diagram grammars.
const (
	TerminalAccDescr          = "ACC_DESCR"
	TerminalAccTitle          = "ACC_TITLE"
	TerminalTitle             = "TITLE"
	TerminalFloat             = "FLOAT"
	TerminalInt               = "INT"
	TerminalString            = "STRING"
	TerminalID                = "ID"
	TerminalNewline           = "NEWLINE"
	TerminalWhitespace        = "WHITESPACE"
	TerminalYAML              = "YAML"
	TerminalDirective         = "DIRECTIVE"
	TerminalSingleLineComment = "SINGLE_LINE_COMMENT"
)

// CommonTerminals returns the terminals every diagram grammar imports:
// accessibility and title lines, numbers, strings, newlines, and the hidden
// whitespace, front matter, directive and comment rules.
func CommonTerminals() []Terminal {
	return []Terminal{
		{Name: TerminalAccDescr, Pattern: `[\t ]*accDescr(?:[\t ]*:([^\n\r]*?(?=%%)|[^\n\r]*)|\s*{([^}]*)})`},
		{Name: TerminalAccTitle, Pattern: `[\t ]*accTitle[\t ]*:(?:[^\n\r]*?(?=%%)|[^\n\r]*)`},
		{Name: TerminalTitle, Pattern: `[\t ]*title(?:[\t ][^\n\r]*?(?=%%)|[\t ][^\n\r]*|)`},
		{Name: TerminalFloat, Pattern: `[0-9]+\.[0-9]+(?!\.)`},
		{Name: TerminalInt, Pattern: `0|[1-9][0-9]*(?!\.)`},
		{Name: TerminalString, Pattern: `"([^"\\]|\\.)*"|'([^'\\]|\\.)*'`},
		{Name: TerminalID, Pattern: `[\w]([-\w]*\w)?`},
		{Name: TerminalNewline, Pattern: `\r?\n`},
		{Name: TerminalWhitespace, Pattern: `[\t ]+`, Hidden: true},
		{Name: TerminalYAML, Pattern: `---[\t ]*\r?\n(?:[\S\s]*?\r?\n)?---(?:\r?\n|(?!\S))`, Hidden: true},
		{Name: TerminalDirective, Pattern: `[\t ]*%%{[\S\s]*?}%%(?:\r?\n|(?!\S))`, Hidden: true},
		{Name: TerminalSingleLineComment, Pattern: `[\t ]*%%[^\n\r]*`, Hidden: true},
	}
}

// SelectTerminals returns the common terminals with the given names, in the
// common order.
func SelectTerminals(names ...string) []Terminal {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Terminal
	for _, t := range CommonTerminals() {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out
}
