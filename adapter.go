// Package filein contains core domain types and interfaces for pipeline source adapters
package filein

import "github.com/brettbedarf/filein/config"

// SourceAdapter is a pipeline source driven by its [Host]. Instances are 1:1 with
// the configured resource and expose at most one output [Port].
//
// The host calls the lifecycle methods serially on a given instance; adapters
// do no internal locking.
type SourceAdapter interface {
	// PortID is the identifier the output port is (or will be) declared under.
	// Events targeting the adapter's stream use it as their address.
	PortID() string

	// Initialize acquires the resource. Failures are returned and also reported
	// through [Host.SetupFailure].
	Initialize(host Host) error

	// Process does one unit of work. Returns nil when more work is pending,
	// [ErrEOS] once the stream is complete, or a service error.
	Process() error

	// HandleEvent reports whether the event was consumed by the adapter.
	HandleEvent(evt *Event) bool

	// Finalize releases everything Initialize acquired. Safe to call in any state.
	Finalize()
}

// Provider is a factory for concrete [SourceAdapter] implementations.
// Probe must be side-effect free so a host can ask several providers about the
// same locator before committing to one.
type Provider interface {
	Probe(locator string, mimeHint string) ProbeScore
	NewAdapter(cfg *config.Config) (SourceAdapter, error)
}

// ProbeScore is a provider's verdict on whether it can serve a locator
type ProbeScore int

const (
	ProbeNotSupported ProbeScore = iota
	ProbeSupported
)

func (s ProbeScore) String() string {
	if s == ProbeSupported {
		return "supported"
	}
	return "not_supported"
}

// Host is the pipeline side a source adapter is invoked by and reports to.
type Host interface {
	// DeclarePort creates the output port with the given identifier
	DeclarePort(id string) (Port, error)
	// SetupFailure records an initialization-time error
	SetupFailure(err error)
}

// Port is an output endpoint exposing one logical stream to the pipeline.
type Port interface {
	ID() string
	SetProperty(key PropKey, val any)
	Property(key PropKey) (any, bool)
	// Send hands the packet to downstream consumers. Packet data is shared, not
	// copied, so the sender must keep it unchanged afterwards.
	Send(pck *Packet) error
	SetEOS()
	EOS() bool
}

// Sink is an opaque downstream consumer of packets.
type Sink interface {
	Consume(port Port, pck *Packet) error
}
