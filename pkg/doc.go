// Package pkg provides the core libraries for diagramkit.
//
// # Overview
//
// Diagramkit parses small diagram languages and renders them as SVG. The pkg
// directory is organized into four main areas:
//
//  1. [lang] - Language services (lexer, parser, value converter) assembled
//     from dependency-injection modules, plus the packet language in
//     [lang/packet]
//  2. [packet] and [render] - Diagram model and SVG renderers
//  3. [pipeline] - Orchestration (parse → build → render) with caching
//  4. [server], [store], [cache], [config] - Infrastructure for the CLI and
//     the HTTP API
//
// # Architecture
//
// The typical data flow for a packet diagram:
//
//	packet-beta source text
//	         ↓
//	    [lang/packet] (lex + parse into an AST, with diagnostics)
//	         ↓
//	    [packet] (validate fields, split them into rows)
//	         ↓
//	    [render/packetsvg] (one band of fields per row)
//	         ↓
//	    SVG/JSON output
//
// Single node shapes skip the language layer: a [render/shapes] renderer
// draws a node, records its size and installs the outline geometry used to
// clip edges against it.
//
// # Quick Start
//
// Parse and render a packet diagram:
//
//	bundle, _ := langpacket.CreateServices(lang.EmptyFileSystem)
//	ast, _ := langpacket.Parse(bundle.Packet, src)
//	d, _ := packet.Build(ast, packet.DefaultBitsPerRow)
//	svg, _ := packetsvg.Render(d)
//
// Or let the pipeline handle validation, caching and logging:
//
//	runner, _ := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, _ := runner.Execute(ctx, pipeline.Options{Source: src})
//
// # Main Packages
//
// ## Languages
//
// [lang] - Services, modules and the service registry shared by all diagram
// languages. [lang/packet] contributes the packet grammar, token builder and
// parser.
//
// ## Rendering
//
// [render/surface] - Retained SVG element tree serialized through svgo.
//
// [render/rough] - Path drawing with a seeded hand-drawn look.
//
// [render/shapes] - Node outlines: rectangle and half-rounded rectangle.
//
// [render/packetsvg] - Packet diagram renderer.
//
// [geom] and [fonts] - Planar geometry and embedded font metrics for label
// measurement.
//
// ## Infrastructure
//
// [pipeline] - The single code path used by the CLI and the HTTP API.
//
// [cache] - File, Redis and null caches with content-hash keys.
//
// [store] - Saved diagrams in memory, on disk or in MongoDB.
//
// [server] - chi-based HTTP API.
//
// [config] - TOML/YAML file and environment configuration.
//
// [errors] - Error codes shared by the CLI and the API.
//
// [observability] - Hooks for metrics and tracing.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/lang/...       # Specific package
//	go test -run Example ./...   # Examples only
//
// [lang]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/lang
// [lang/packet]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/lang/packet
// [packet]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/packet
// [render]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/render
// [render/surface]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/render/surface
// [render/rough]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/render/rough
// [render/shapes]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/render/shapes
// [render/packetsvg]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/render/packetsvg
// [geom]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/geom
// [fonts]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/fonts
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/observability
package pkg
