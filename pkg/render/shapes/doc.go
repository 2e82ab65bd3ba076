// Package shapes renders diagram node outlines.
//
// Each renderer takes a parent element and a [Node], draws the node's label
// and outline, records the rendered size on the node and installs a
// [Geometry] so edge routing can ask where a connector meets the outline:
//
//	node := &shapes.Node{ID: "db", Label: "Queue", Padding: 16}
//	group, err := shapes.HalfRoundedRect(ctx, parent, node)
//	...
//	end := node.Intersect(geom.Point{X: 300, Y: 40})
//
// Nodes use the classic look (clean strokes, solid fill) unless Look is
// [LookHandDrawn], in which case the outline goes through the rough backend
// with the node's seed.
//
// # Styles
//
// Class-derived styles (CSSCompiledStyles) are merged with the node's own
// styles (CSSStyles); a property set in both takes the node's value. Text
// properties are routed to the label, everything else to the outline.
package shapes
