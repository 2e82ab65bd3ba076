// Package pipeline provides the core diagram pipeline for diagramkit.
//
// This package implements the parse → build → render pipeline that is used by
// both the CLI and the HTTP API. By centralizing this logic, both entry points
// validate, cache, and log in the same way.
//
// # Architecture
//
// A packet diagram goes through three stages:
//
//  1. Parse: Lex and parse the source with the packet language services
//  2. Build: Validate the fields and split them into rows
//  3. Render: Generate output (SVG or JSON)
//
// Single node shapes skip the first two stages and are rendered directly.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner, err := pipeline.NewRunner(cache, nil, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source: src,
//	    Format: pipeline.FormatSVG,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("packet.svg", result.Artifact, 0644)
//
// Render a shape:
//
//	svg, err := runner.RenderShape(ctx, pipeline.ShapeOptions{
//	    Node: shapes.Node{ID: "n1", Label: "Queue", Padding: 8},
//	    Kind: "half-rounded-rect",
//	})
package pipeline

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/errors"
	langpacket "github.com/matzehuels/diagramkit/pkg/lang/packet"
	"github.com/matzehuels/diagramkit/pkg/packet"
	"github.com/matzehuels/diagramkit/pkg/render/packetsvg"
	"github.com/matzehuels/diagramkit/pkg/render/shapes"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultLanguage is the diagram language parsed when none is given.
	DefaultLanguage = langpacket.LanguageID

	// DefaultBatchLimit bounds the number of diagrams rendered concurrently.
	DefaultBatchLimit = 4

	// MaxPadding bounds the padding around a shape's label, in pixels.
	MaxPadding = 1000
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatJSON}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a diagram pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Language string `json:"language,omitempty"`
	Source   string `json:"source"`
	Name     string `json:"name,omitempty"` // Shown in errors, usually the file name
	Refresh  bool   `json:"refresh,omitempty"`

	// Build options
	BitsPerRow int `json:"bits_per_row,omitempty"`

	// Render options
	Format string            `json:"format,omitempty"`
	Packet *packetsvg.Config `json:"packet,omitempty"` // nil uses packetsvg.DefaultConfig

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ShapeOptions configures the rendering of a single node shape.
type ShapeOptions struct {
	Node   shapes.Node `json:"node"`
	Kind   string      `json:"kind"`
	Format string      `json:"format,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ShapeSummary is the JSON rendering of a shape: the node with its derived
// size and the outline geometry used for edge clipping.
type ShapeSummary struct {
	Node   shapes.Node `json:"node"`
	Kind   string      `json:"kind"`
	Radius float64     `json:"radius,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Name echoes Options.Name.
	Name string

	// SourceHash is the content hash of the source text.
	SourceHash string

	// Diagram is the validated diagram.
	Diagram *packet.Diagram

	// Artifact is the rendered output in the requested format.
	Artifact []byte

	// Format is the format of Artifact.
	Format string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockCount int
	RowCount   int
	ParseTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the diagram came from cache
	RenderHit bool // Whether the artifact came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.Language != langpacket.LanguageID {
		return errors.New(errors.ErrCodeUnsupported, "unsupported diagram language: %q", o.Language)
	}
	if err := errors.ValidateDiagramSource(o.Source); err != nil {
		return err
	}
	if o.BitsPerRow <= 0 {
		o.BitsPerRow = packet.DefaultBitsPerRow
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if err := errors.ValidateFormat(o.Format, Formats...); err != nil {
		return err
	}
	if o.Packet == nil {
		cfg := packetsvg.DefaultConfig()
		o.Packet = &cfg
	}
	if o.Packet.RowHeight <= 0 || o.Packet.BitWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "row height and bit width must be positive")
	}
	return nil
}

// ArtifactKeyOpts returns cache key options for rendering.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Language:   o.Language,
		Format:     o.Format,
		BitsPerRow: o.BitsPerRow,
	}
	if o.Packet != nil {
		k.RowHeight = o.Packet.RowHeight
		k.BitWidth = o.Packet.BitWidth
		k.PaddingX = o.Packet.PaddingX
		k.PaddingY = o.Packet.PaddingY
		k.ShowBits = o.Packet.ShowBits
	}
	return k
}

// ValidateAndSetDefaults checks the shape kind and format.
func (o *ShapeOptions) ValidateAndSetDefaults() (shapes.Kind, error) {
	kind, err := shapes.ParseKind(o.Kind)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidShape, err, "invalid shape kind %q", o.Kind)
	}
	o.Kind = kind.String()
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if err := errors.ValidateFormat(o.Format, Formats...); err != nil {
		return 0, err
	}
	if p := o.Node.Padding; p < 0 || p > MaxPadding || math.IsNaN(p) {
		return 0, errors.New(errors.ErrCodeInvalidShape, "padding %v out of range 0..%d", p, MaxPadding)
	}
	if o.Node.Look == "" {
		o.Node.Look = shapes.LookClassic
	}
	if o.Node.Look != shapes.LookClassic && o.Node.Look != shapes.LookHandDrawn {
		return 0, errors.New(errors.ErrCodeInvalidStyle, "unknown look %q", o.Node.Look)
	}
	for _, s := range o.Node.CSSStyles {
		if err := errors.ValidateStyle(s); err != nil {
			return 0, err
		}
	}
	if err := errors.ValidateStyle(o.Node.LabelStyle); err != nil {
		return 0, err
	}
	return kind, nil
}
