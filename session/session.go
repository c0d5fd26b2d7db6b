// Package session is a minimal pipeline host for source adapters: it declares
// ports on their behalf, forwards packets to a sink and drives the adapter
// lifecycle serially.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/filein"
	"github.com/brettbedarf/filein/internal/util"
)

var (
	ErrPortExists = errors.New("port already declared")
	ErrPortClosed = errors.New("port reached end of stream")
)

// Session hosts source adapters. A session may host several adapters but each
// adapter is driven from a single goroutine.
type Session struct {
	id       string
	sink     filein.Sink
	ports    *xsync.Map[string, *OutputPort]
	setupErr atomic.Pointer[error]
	logger   util.Logger
}

// New creates a session forwarding every sent packet to sink. A nil sink drops
// packets.
func New(sink filein.Sink) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		sink:   sink,
		ports:  xsync.NewMap[string, *OutputPort](),
		logger: util.GetLogger("session").With().Str("session", id).Logger(),
	}
}

func (s *Session) ID() string { return s.id }

// DeclarePort implements [filein.Host]
func (s *Session) DeclarePort(id string) (filein.Port, error) {
	if id == "" {
		return nil, errors.New("port id must not be empty")
	}
	port := newOutputPort(id, s)
	if _, loaded := s.ports.LoadOrStore(id, port); loaded {
		return nil, fmt.Errorf("%w: %s", ErrPortExists, id)
	}
	s.logger.Debug().Str("port", id).Msg("Port declared")
	return port, nil
}

// SetupFailure implements [filein.Host]. The last reported failure is kept.
func (s *Session) SetupFailure(err error) {
	s.setupErr.Store(&err)
	s.logger.Warn().Err(err).Msg("Source setup failed")
}

// SetupErr returns the last setup failure reported by a hosted adapter
func (s *Session) SetupErr() error {
	if p := s.setupErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Port returns a declared port by id
func (s *Session) Port(id string) (*OutputPort, bool) {
	return s.ports.Load(id)
}

// Ports returns all declared ports ordered by id
func (s *Session) Ports() []*OutputPort {
	ports := make([]*OutputPort, 0, s.ports.Size())
	s.ports.Range(func(_ string, p *OutputPort) bool {
		ports = append(ports, p)
		return true
	})
	sort.Slice(ports, func(i, j int) bool { return ports[i].id < ports[j].id })
	return ports
}

// Dispatch delivers a control event to the adapter and reports whether it was
// handled.
func (s *Session) Dispatch(adapter filein.SourceAdapter, evt *filein.Event) bool {
	if evt == nil {
		return false
	}
	handled := adapter.HandleEvent(evt)
	s.logger.Trace().
		Stringer("event", evt.Type).
		Str("port", evt.PortID).
		Bool("handled", handled).
		Msg("Event dispatched")
	return handled
}

// Run initializes the adapter, processes it until end of stream and always
// finalizes it, including after a failed initialization. Cancelling ctx sends
// a stop event to the adapter's port and returns ctx's error.
func (s *Session) Run(ctx context.Context, adapter filein.SourceAdapter) error {
	defer adapter.Finalize()

	if err := adapter.Initialize(s); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	for calls := 1; ; calls++ {
		if err := ctx.Err(); err != nil {
			s.Dispatch(adapter, &filein.Event{Type: filein.EventStop, PortID: adapter.PortID()})
			return err
		}
		err := adapter.Process()
		switch {
		case errors.Is(err, filein.ErrEOS):
			s.logger.Debug().Int("calls", calls).Msg("Source reached end of stream")
			return nil
		case err != nil:
			return fmt.Errorf("process: %w", err)
		}
	}
}
