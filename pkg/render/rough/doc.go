// Package rough draws SVG path data with a deterministic hand-drawn look.
//
// A [Generator] takes ordinary path data and returns a group holding a fill
// path and a stroke path. With roughness 0 the stroke is the input path
// unchanged, so clean and sketchy rendering share one code path:
//
//	g := rough.New(rough.DefaultOptions())
//	el, err := g.Path("M 0 0 L 10 0 L 10 10 Z", rough.Options{Fill: "#fff"})
//
// Wobble comes from a seeded generator, so the same seed always yields the
// same output.
//
// The package also exposes the small path toolkit the generator is built on:
// [ParsePath], [FormatPath] and [Bounds].
package rough
