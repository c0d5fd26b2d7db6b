package filein

// PropKey names a port or packet property
type PropKey string

// Port properties
const (
	PropFilePath PropKey = "file_path" // local path hint
	PropURL      PropKey = "url"       // canonical URL
	PropFileExt  PropKey = "file_ext"  // logical file extension
	PropMIME     PropKey = "mime"
)

// Packet properties
const (
	PropByteOffset PropKey = "byte_offset"
)

// SAPType is the stream access point type of a packet. 0 means not a random
// access point.
type SAPType uint8

const (
	SAPNone  SAPType = 0
	SAPType1 SAPType = 1 // independently decodable
)

// Packet is one timestamped unit of data sent through a [Port].
//
// Data is shared with the producer's buffer. Consumers must treat it as read-only;
// the producer keeps the backing buffer alive until it is finalized.
type Packet struct {
	Data  []byte
	CTS   uint64 // composition time in milliseconds
	SAP   SAPType
	Start bool // first unit of the stream
	End   bool // last unit of the stream
	props map[PropKey]any
}

// NewSharedPacket wraps data without copying it.
func NewSharedPacket(data []byte) *Packet {
	return &Packet{Data: data}
}

// SetFraming marks the packet as the start and/or end of the stream
func (p *Packet) SetFraming(start, end bool) {
	p.Start = start
	p.End = end
}

func (p *Packet) SetProperty(key PropKey, val any) {
	if p.props == nil {
		p.props = make(map[PropKey]any, 1)
	}
	p.props[key] = val
}

func (p *Packet) Property(key PropKey) (any, bool) {
	v, ok := p.props[key]
	return v, ok
}
