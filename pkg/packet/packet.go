// Package packet turns a parsed packet document into rows of bit fields
// ready for rendering.
//
// Fields must be declared in order without gaps. A field that crosses a row
// boundary is split into one piece per row, each keeping the field's label:
//
//	ast, _ := langpacket.Parse(services, src)
//	d, err := packet.Build(ast, packet.DefaultBitsPerRow)
//	for _, row := range d.Rows {
//	    // row[i].Start and row[i].End are absolute bit positions
//	}
package packet

import (
	"github.com/matzehuels/diagramkit/pkg/errors"
	langpacket "github.com/matzehuels/diagramkit/pkg/lang/packet"
)

const (
	// DefaultBitsPerRow is the row width of a packet diagram.
	DefaultBitsPerRow = 32
	// MaxRows caps the rows a single diagram may produce.
	MaxRows = 10_000
)

// Block is a resolved field, or the part of a field that falls in one row.
type Block struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Bits  int    `json:"bits"`
	Label string `json:"label"`
}

// Diagram is a packet diagram laid out in rows.
type Diagram struct {
	Title      string    `json:"title,omitempty"`
	AccTitle   string    `json:"accTitle,omitempty"`
	AccDescr   string    `json:"accDescr,omitempty"`
	BitsPerRow int       `json:"bitsPerRow"`
	Rows       [][]Block `json:"rows"`
}

// BlockCount returns the number of drawn blocks. A field split across rows
// counts once per row. A nil diagram has none.
func (d *Diagram) BlockCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, row := range d.Rows {
		n += len(row)
	}
	return n
}

// Build validates the declared fields and splits them into rows of
// bitsPerRow bits. A non-positive bitsPerRow selects DefaultBitsPerRow.
//
// Fields are resolved as follows: "+n" starts right after the previous field
// and spans n bits, a start without an end spans one bit. Errors carry
// ErrCodeInvalidPacket and name the offending source line.
func Build(ast *langpacket.Packet, bitsPerRow int) (*Diagram, error) {
	if ast == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "packet is nil")
	}
	if bitsPerRow <= 0 {
		bitsPerRow = DefaultBitsPerRow
	}

	d := &Diagram{
		Title:      ast.Title,
		AccTitle:   ast.AccTitle,
		AccDescr:   ast.AccDescr,
		BitsPerRow: bitsPerRow,
		Rows:       [][]Block{},
	}

	lastBit := -1
	row := 1
	var word []Block
	for _, decl := range ast.Blocks {
		b, err := resolve(decl, lastBit)
		if err != nil {
			return nil, err
		}
		lastBit = b.End

		for {
			if len(d.Rows) >= MaxRows {
				return nil, errors.New(errors.ErrCodeInvalidPacket,
					"line %d: packet exceeds %d rows", decl.Line, MaxRows)
			}
			piece, rest, split := fit(b, row, bitsPerRow)
			word = append(word, piece)
			if piece.End+1 == row*bitsPerRow {
				d.Rows = append(d.Rows, word)
				word = nil
				row++
			}
			if !split {
				break
			}
			b = rest
		}
	}
	if len(word) > 0 {
		d.Rows = append(d.Rows, word)
	}
	return d, nil
}

func resolve(decl langpacket.Block, lastBit int) (Block, error) {
	if decl.Start != nil && decl.End != nil && *decl.End < *decl.Start {
		return Block{}, errors.New(errors.ErrCodeInvalidPacket,
			"line %d: packet block %d - %d is invalid, end must be greater than start",
			decl.Line, *decl.Start, *decl.End)
	}

	start := lastBit + 1
	if decl.Start != nil {
		start = *decl.Start
	}
	if start != lastBit+1 {
		end := start
		if decl.End != nil {
			end = *decl.End
		}
		return Block{}, errors.New(errors.ErrCodeInvalidPacket,
			"line %d: packet block %d - %d is not contiguous, it should start from %d",
			decl.Line, start, end, lastBit+1)
	}
	if decl.Bits != nil && *decl.Bits <= 0 {
		return Block{}, errors.New(errors.ErrCodeInvalidPacket,
			"line %d: packet block %d is invalid, a field needs at least one bit", decl.Line, start)
	}

	end := start
	switch {
	case decl.End != nil:
		end = *decl.End
	case decl.Bits != nil:
		end = start + *decl.Bits - 1
	}
	return Block{Start: start, End: end, Bits: end - start + 1, Label: decl.Label}, nil
}

// fit returns the part of b that fits into the given 1-based row and, when b
// crosses the row's end, the remainder.
func fit(b Block, row, bitsPerRow int) (piece, rest Block, split bool) {
	if b.End+1 <= row*bitsPerRow {
		return b, Block{}, false
	}
	rowEnd := row*bitsPerRow - 1
	rowStart := row * bitsPerRow
	piece = Block{Start: b.Start, End: rowEnd, Bits: rowEnd - b.Start + 1, Label: b.Label}
	rest = Block{Start: rowStart, End: b.End, Bits: b.End - rowStart + 1, Label: b.Label}
	return piece, rest, true
}
