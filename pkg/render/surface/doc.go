// Package surface is a minimal retained SVG tree used as the drawing surface
// for shape renderers.
//
// Renderers build [Element] trees (groups, paths, text), mutate attributes in
// place the way a DOM selection would, and finally serialize a [Document]
// through the svgo writer:
//
//	root := surface.Group()
//	root.Append(surface.Path("M0,0 L10,0")).Attr("class", "edge")
//	data, err := surface.Bytes(surface.Document{Width: 20, Height: 20, Root: root})
package surface
