package packet

import "github.com/matzehuels/diagramkit/pkg/lang"

// NewTokenBuilder returns the packet token builder. The diagram headers only
// match as whole words, so "packet-beta2" is rejected instead of being read
// as a header followed by garbage.
func NewTokenBuilder() *lang.DefaultTokenBuilder {
	return lang.NewBoundaryTokenBuilder(headers...)
}
