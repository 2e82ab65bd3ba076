package packet

// Packet is the root of a parsed packet diagram.
type Packet struct {
	Title    string  `json:"title,omitempty"`
	AccTitle string  `json:"accTitle,omitempty"`
	AccDescr string  `json:"accDescr,omitempty"`
	Blocks   []Block `json:"blocks"`
}

// Block is one field declaration. Either Start (with an optional End) or
// Bits is set.
type Block struct {
	Start *int   `json:"start,omitempty"`
	End   *int   `json:"end,omitempty"`
	Bits  *int   `json:"bits,omitempty"`
	Label string `json:"label"`
	Line  int    `json:"line"`
}

// AST type names reported by the reflection service.
const (
	TypePacket      = "Packet"
	TypePacketBlock = "PacketBlock"
)

type reflection struct{}

func (reflection) AllTypes() []string {
	return []string{TypePacket, TypePacketBlock}
}

func (reflection) IsInstance(node any, typ string) bool {
	switch node.(type) {
	case *Packet, Packet:
		return typ == TypePacket
	case *Block, Block:
		return typ == TypePacketBlock
	}
	return false
}
