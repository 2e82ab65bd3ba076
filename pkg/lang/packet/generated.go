package packet

import (
	"github.com/matzehuels/diagramkit/pkg/lang"
)

// LanguageID is the registry key of the packet language.
const LanguageID = "packet"

// Keywords of the packet grammar. Headers are listed first.
var Keywords = []string{"packet-beta", "packet", ":", "-", "+"}

// headers must be followed by whitespace, a comment or the end of input.
var headers = []string{"packet-beta", "packet"}

// Grammar returns the packet grammar.
func Grammar() *lang.Grammar {
	return &lang.Grammar{
		Name:     "Packet",
		Keywords: append([]string(nil), Keywords...),
		Terminals: lang.SelectTerminals(
			lang.TerminalAccDescr,
			lang.TerminalAccTitle,
			lang.TerminalTitle,
			lang.TerminalInt,
			lang.TerminalString,
			lang.TerminalNewline,
			lang.TerminalWhitespace,
			lang.TerminalYAML,
			lang.TerminalDirective,
			lang.TerminalSingleLineComment,
		),
	}
}

// GeneratedSharedModule contributes the AST reflection of the diagram
// languages to the shared services.
var GeneratedSharedModule = lang.SharedModule{
	AstReflection: func() lang.AstReflection { return reflection{} },
}

// GeneratedModule contributes the grammar, language metadata and parser.
var GeneratedModule = lang.Module{
	LanguageMetaData: func() lang.LanguageMetaData {
		return lang.LanguageMetaData{
			LanguageID:     LanguageID,
			FileExtensions: []string{".mmd", ".mermaid"},
		}
	},
	Grammar: Grammar,
	Parser: func(s *lang.Services) (lang.Parser, error) {
		p, err := NewParser(s)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
}
