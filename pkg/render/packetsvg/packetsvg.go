// Package packetsvg renders packet diagrams as SVG.
//
// Each row of the diagram becomes a band of rectangles, one per field, with
// the label centred inside and the first and last bit numbers above. The
// title, when present, is centred below the last row.
package packetsvg

import (
	"strconv"

	"github.com/matzehuels/diagramkit/pkg/packet"
	"github.com/matzehuels/diagramkit/pkg/render/surface"
)

const styles = `
.packetByte { font-size: 10px; }
.packetByte.start { fill: black; }
.packetByte.end { fill: black; }
.packetLabel { fill: black; font-size: 12px; }
.packetTitle { fill: black; font-size: 14px; }
.packetBlock { stroke: black; stroke-width: 1; fill: #efefef; }
`

// bitNumberLift raises bit numbers above the top edge of their row.
const bitNumberLift = 2

// Config controls the geometry of a rendered packet diagram.
type Config struct {
	RowHeight float64 `json:"rowHeight" yaml:"row_height" toml:"row_height" env:"ROW_HEIGHT"`
	BitWidth  float64 `json:"bitWidth" yaml:"bit_width" toml:"bit_width" env:"BIT_WIDTH"`
	PaddingX  float64 `json:"paddingX" yaml:"padding_x" toml:"padding_x" env:"PADDING_X"`
	PaddingY  float64 `json:"paddingY" yaml:"padding_y" toml:"padding_y" env:"PADDING_Y"`
	ShowBits  bool    `json:"showBits" yaml:"show_bits" toml:"show_bits" env:"SHOW_BITS"`
}

// DefaultConfig returns the standard packet geometry.
func DefaultConfig() Config {
	return Config{RowHeight: 32, BitWidth: 32, PaddingX: 5, PaddingY: 5, ShowBits: true}
}

type Option func(*Config)

func WithConfig(c Config) Option      { return func(cfg *Config) { *cfg = c } }
func WithRowHeight(h float64) Option  { return func(cfg *Config) { cfg.RowHeight = h } }
func WithBitWidth(w float64) Option   { return func(cfg *Config) { cfg.BitWidth = w } }
func WithPadding(x, y float64) Option { return func(cfg *Config) { cfg.PaddingX, cfg.PaddingY = x, y } }
func WithBits(show bool) Option       { return func(cfg *Config) { cfg.ShowBits = show } }

// Render draws d and serializes it as a standalone SVG document.
func Render(d *packet.Diagram, opts ...Option) ([]byte, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return surface.Bytes(Draw(d, cfg))
}

// Draw lays out d with cfg. Bit numbers take 10px of extra row padding.
func Draw(d *packet.Diagram, cfg Config) surface.Document {
	bitsPerRow := d.BitsPerRow
	if bitsPerRow <= 0 {
		bitsPerRow = packet.DefaultBitsPerRow
	}
	if cfg.ShowBits {
		cfg.PaddingY += 10
	}

	rowPitch := cfg.RowHeight + cfg.PaddingY
	height := rowPitch * float64(len(d.Rows)+1)
	if d.Title == "" {
		height -= cfg.RowHeight
	}
	width := cfg.BitWidth*float64(bitsPerRow) + 2

	root := surface.Group().Attr("class", "packet")
	if d.AccTitle != "" {
		root.Attr("aria-roledescription", "packet").Attr("aria-label", d.AccTitle)
	}
	if d.AccDescr != "" {
		desc := surface.New("desc")
		desc.Text = d.AccDescr
		root.Append(desc)
	}
	css := surface.New("style")
	css.Text = styles
	root.Append(css)

	for i, row := range d.Rows {
		root.Append(drawRow(row, i, bitsPerRow, cfg))
	}

	if d.Title != "" {
		root.Append(surface.Text(d.Title)).
			Attr("x", num(width/2)).
			Attr("y", num(height-rowPitch/2)).
			Attr("dominant-baseline", "middle").
			Attr("text-anchor", "middle").
			Attr("class", "packetTitle")
	}

	return surface.Document{Width: width, Height: height, Title: d.AccTitle, Root: root}
}

func drawRow(row []packet.Block, index, bitsPerRow int, cfg Config) *surface.Element {
	g := surface.Group()
	y := float64(index)*(cfg.RowHeight+cfg.PaddingY) + cfg.PaddingY

	for _, b := range row {
		x := float64(b.Start%bitsPerRow)*cfg.BitWidth + 1
		w := float64(b.End-b.Start+1)*cfg.BitWidth - cfg.PaddingX

		g.Append(surface.New("rect")).
			Attr("x", num(x)).
			Attr("y", num(y)).
			Attr("width", num(w)).
			Attr("height", num(cfg.RowHeight)).
			Attr("class", "packetBlock")
		g.Append(surface.Text(b.Label)).
			Attr("x", num(x+w/2)).
			Attr("y", num(y+cfg.RowHeight/2)).
			Attr("class", "packetLabel").
			Attr("dominant-baseline", "middle").
			Attr("text-anchor", "middle")

		if !cfg.ShowBits {
			continue
		}
		single := b.Start == b.End
		by := num(y - bitNumberLift)
		if single {
			g.Append(surface.Text(strconv.Itoa(b.Start))).
				Attr("x", num(x+w/2)).
				Attr("y", by).
				Attr("class", "packetByte start").
				Attr("dominant-baseline", "auto").
				Attr("text-anchor", "middle")
			continue
		}
		g.Append(surface.Text(strconv.Itoa(b.Start))).
			Attr("x", num(x)).
			Attr("y", by).
			Attr("class", "packetByte start").
			Attr("dominant-baseline", "auto").
			Attr("text-anchor", "start")
		g.Append(surface.Text(strconv.Itoa(b.End))).
			Attr("x", num(x+w)).
			Attr("y", by).
			Attr("class", "packetByte end").
			Attr("dominant-baseline", "auto").
			Attr("text-anchor", "end")
	}
	return g
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
