package cache

// Keyer derives cache keys. Implementations must be deterministic: equal
// inputs always give equal keys.
type Keyer interface {
	// ParseKey is the key of a parsed diagram split into rows of bitsPerRow.
	ParseKey(language, sourceHash string, bitsPerRow int) string

	// ArtifactKey is the key of a rendered diagram.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string

	// ShapeKey is the key of a rendered single shape.
	ShapeKey(nodeHash string, opts ShapeKeyOpts) string
}

// ArtifactKeyOpts lists everything that changes a rendered diagram.
type ArtifactKeyOpts struct {
	Language   string  `json:"language"`
	Format     string  `json:"format"`
	BitsPerRow int     `json:"bits_per_row,omitempty"`
	RowHeight  float64 `json:"row_height,omitempty"`
	BitWidth   float64 `json:"bit_width,omitempty"`
	PaddingX   float64 `json:"padding_x,omitempty"`
	PaddingY   float64 `json:"padding_y,omitempty"`
	ShowBits   bool    `json:"show_bits,omitempty"`
}

// ShapeKeyOpts lists everything besides the node that changes a shape.
type ShapeKeyOpts struct {
	Kind   string `json:"kind"`
	Look   string `json:"look,omitempty"`
	Format string `json:"format,omitempty"`
}

// DefaultKeyer hashes all key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ParseKey implements Keyer.
func (DefaultKeyer) ParseKey(language, sourceHash string, bitsPerRow int) string {
	return hashKey("parse", language, sourceHash, bitsPerRow)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}

// ShapeKey implements Keyer.
func (DefaultKeyer) ShapeKey(nodeHash string, opts ShapeKeyOpts) string {
	return hashKey("shape", nodeHash, opts)
}
