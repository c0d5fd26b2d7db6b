package session

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/filein"
)

// OutputPort is the session side of a declared [filein.Port]
type OutputPort struct {
	id      string
	session *Session
	props   *xsync.Map[filein.PropKey, any]
	eos     atomic.Bool
	sent    atomic.Uint64
}

func newOutputPort(id string, s *Session) *OutputPort {
	return &OutputPort{
		id:      id,
		session: s,
		props:   xsync.NewMap[filein.PropKey, any](),
	}
}

var _ filein.Port = (*OutputPort)(nil)

func (p *OutputPort) ID() string { return p.id }

func (p *OutputPort) SetProperty(key filein.PropKey, val any) {
	p.props.Store(key, val)
}

func (p *OutputPort) Property(key filein.PropKey) (any, bool) {
	return p.props.Load(key)
}

// StringProperty returns a property as a string, "" if unset or of another type
func (p *OutputPort) StringProperty(key filein.PropKey) string {
	v, _ := p.props.Load(key)
	s, _ := v.(string)
	return s
}

// Properties returns a snapshot of all port properties
func (p *OutputPort) Properties() map[filein.PropKey]any {
	out := make(map[filein.PropKey]any, p.props.Size())
	p.props.Range(func(k filein.PropKey, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// Send forwards pck to the session sink. Packets sent after end of stream are
// rejected.
func (p *OutputPort) Send(pck *filein.Packet) error {
	if p.eos.Load() {
		return fmt.Errorf("%w: %s", ErrPortClosed, p.id)
	}
	p.sent.Add(1)
	if p.session.sink == nil {
		return nil
	}
	return p.session.sink.Consume(p, pck)
}

func (p *OutputPort) SetEOS() {
	if !p.eos.Swap(true) {
		p.session.logger.Debug().Str("port", p.id).Uint64("packets", p.sent.Load()).Msg("Port end of stream")
	}
}

func (p *OutputPort) EOS() bool { return p.eos.Load() }

// Sent is the number of packets accepted by the port
func (p *OutputPort) Sent() uint64 { return p.sent.Load() }
