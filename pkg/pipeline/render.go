package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/diagramkit/pkg/packet"
	"github.com/matzehuels/diagramkit/pkg/render/packetsvg"
	"github.com/matzehuels/diagramkit/pkg/render/shapes"
)

// Render generates the artifact for d in opts.Format.
func Render(d *packet.Diagram, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatSVG:
		cfg := packetsvg.DefaultConfig()
		if opts.Packet != nil {
			cfg = *opts.Packet
		}
		data, err := packetsvg.Render(d, packetsvg.WithConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// RenderShape draws opts.Node as kind. The node is updated with its derived
// size, so JSON output reports the final box and cap radius.
func RenderShape(ctx context.Context, kind shapes.Kind, opts ShapeOptions) ([]byte, error) {
	ctx = shapes.WithLogger(ctx, opts.Logger)
	node := opts.Node

	svg, err := shapes.RenderNode(ctx, &node, kind)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	if opts.Format == FormatSVG {
		return svg, nil
	}

	data, err := json.MarshalIndent(ShapeSummary{
		Node:   node,
		Kind:   kind.String(),
		Radius: node.Geometry.Radius,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return data, nil
}
