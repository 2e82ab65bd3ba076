// Package render groups the SVG renderers.
//
// # Overview
//
// Rendering is split into small layers, each in its own subpackage:
//
//   - [surface]: retained SVG element tree, serialized through svgo
//   - [rough]: path drawing with an optional hand-drawn look
//   - [label]: label measurement and placement
//   - [shapes]: node outlines (rectangle, half-rounded rectangle) and their
//     edge intersection geometry
//   - [packetsvg]: packet diagrams, one band of fields per row
//
// # Shapes
//
// A shape renderer draws a node under a parent element, records the node's
// rendered size and installs the outline geometry used to clip edges:
//
//	node := &shapes.Node{ID: "wait", Label: "Wait for ACK", Padding: 15}
//	svg, err := shapes.RenderNode(ctx, node, shapes.KindHalfRoundedRect)
//
// # Packet Diagrams
//
// Packet diagrams are built by [packet.Build] and rendered by packetsvg:
//
//	svg, err := packetsvg.Render(d, packetsvg.WithBitWidth(24))
//
// [surface]: github.com/matzehuels/diagramkit/pkg/render/surface
// [rough]: github.com/matzehuels/diagramkit/pkg/render/rough
// [label]: github.com/matzehuels/diagramkit/pkg/render/label
// [shapes]: github.com/matzehuels/diagramkit/pkg/render/shapes
// [packetsvg]: github.com/matzehuels/diagramkit/pkg/render/packetsvg
// [packet.Build]: github.com/matzehuels/diagramkit/pkg/packet#Build
package render
