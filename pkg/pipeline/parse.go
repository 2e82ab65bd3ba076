package pipeline

import (
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/lang"
	langpacket "github.com/matzehuels/diagramkit/pkg/lang/packet"
	"github.com/matzehuels/diagramkit/pkg/packet"
)

// Parse parses src with the packet services and builds the diagram.
//
// Syntax problems are reported as a PARSE_ERROR carrying every lexer and
// parser diagnostic. Layout problems, like a gap between fields, are reported
// by [packet.Build].
func Parse(services *lang.Services, opts Options) (*packet.Diagram, error) {
	ast, err := langpacket.Parse(services, opts.Source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "invalid %s diagram%s", opts.Language, where(opts.Name))
	}

	d, err := packet.Build(ast, opts.BitsPerRow)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("built packet diagram",
		"rows", len(d.Rows),
		"bits_per_row", d.BitsPerRow)

	return d, nil
}

// Diagnostics parses src and returns its positioned problems without
// building the diagram. Editors and the API use this for inline markers.
func Diagnostics(services *lang.Services, src string) []lang.Diagnostic {
	return services.Parse(src).Diagnostics()
}

func where(name string) string {
	if name == "" {
		return ""
	}
	return " in " + name
}
