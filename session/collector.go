package session

import (
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/brettbedarf/filein"
)

// Received is a packet observed by a [Collector]
type Received struct {
	PortID string
	Packet *filein.Packet
	Digest digest.Digest // sha256 of the packet data at receive time
}

// Collector is a [filein.Sink] that keeps every packet it receives.
// Packet data is shared with the source and must not be modified.
type Collector struct {
	mu       sync.Mutex
	received []Received
}

func (c *Collector) Consume(port filein.Port, pck *filein.Packet) error {
	r := Received{
		PortID: port.ID(),
		Packet: pck,
		Digest: digest.FromBytes(pck.Data),
	}
	c.mu.Lock()
	c.received = append(c.received, r)
	c.mu.Unlock()
	return nil
}

// Received returns a copy of the packets collected so far
func (c *Collector) Received() []Received {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Received, len(c.received))
	copy(out, c.received)
	return out
}
