// Package packet provides the language services for packet diagrams.
//
// A packet document declares bit fields:
//
//	packet-beta
//	title TCP header
//	0-15: "Source Port"
//	16-31: "Destination Port"
//	+32: "Sequence Number"
//
// [CreateServices] assembles the services from the framework defaults, the
// generated grammar module and [Module], and registers them in the shared
// service registry under [LanguageID].
package packet

import (
	"fmt"

	"github.com/matzehuels/diagramkit/pkg/lang"
)

// Module overrides the framework defaults with the packet parser services.
var Module = lang.Module{
	Lexer: func(s *lang.Services) (lang.Lexer, error) {
		l, err := lang.NewCommonLexer(s)
		if err != nil {
			return nil, err
		}
		return l, nil
	},
	TokenBuilder:   func() lang.TokenBuilder { return NewTokenBuilder() },
	ValueConverter: func() lang.ValueConverter { return lang.NewCommonValueConverter() },
}

// Bundle holds the shared services and the packet services built on them.
type Bundle struct {
	Shared *lang.SharedServices
	Packet *lang.Services
}

// CreateServices builds fresh shared services for ctx and the packet
// services on top of them. A zero ctx has no file system access.
func CreateServices(ctx lang.SharedModuleContext) (*Bundle, error) {
	shared, err := lang.NewSharedServices(lang.DefaultSharedModule(ctx), GeneratedSharedModule)
	if err != nil {
		return nil, fmt.Errorf("create packet services: %w", err)
	}
	return CreateServicesWith(shared)
}

// CreateServicesWith builds the packet services on existing shared services
// and registers them, for callers that host several languages in one
// registry.
func CreateServicesWith(shared *lang.SharedServices) (*Bundle, error) {
	services, err := lang.NewBuilder(shared).
		Defaults(lang.DefaultModule()).
		Generated(GeneratedModule).
		Overrides(Module).
		Build()
	if err != nil {
		return nil, fmt.Errorf("create packet services: %w", err)
	}
	if err := shared.ServiceRegistry.Register(services); err != nil {
		return nil, fmt.Errorf("create packet services: %w", err)
	}
	return &Bundle{Shared: shared, Packet: services}, nil
}
