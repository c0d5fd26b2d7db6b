package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/filein"
	"github.com/brettbedarf/filein/config"
)

// MockHost implements filein.Host for testing across packages
type MockHost struct {
	mock.Mock
}

func (m *MockHost) DeclarePort(id string) (filein.Port, error) {
	args := m.Called(id)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(string) filein.Port); ok {
		return fn(id), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(filein.Port), args.Error(1)
}

func (m *MockHost) SetupFailure(err error) {
	m.Called(err)
}

var _ filein.Host = (*MockHost)(nil)

// MockPort implements filein.Port for testing across packages.
// Properties are stored for real so tests can inspect them.
type MockPort struct {
	mock.Mock
	props map[filein.PropKey]any
}

func (m *MockPort) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPort) SetProperty(key filein.PropKey, val any) {
	m.Called(key, val)
	if m.props == nil {
		m.props = make(map[filein.PropKey]any)
	}
	m.props[key] = val
}

func (m *MockPort) Property(key filein.PropKey) (any, bool) {
	v, ok := m.props[key]
	return v, ok
}

func (m *MockPort) Send(pck *filein.Packet) error {
	args := m.Called(pck)
	return args.Error(0)
}

func (m *MockPort) SetEOS() {
	m.Called()
}

func (m *MockPort) EOS() bool {
	args := m.Called()
	return args.Bool(0)
}

var _ filein.Port = (*MockPort)(nil)

// MockProvider implements filein.Provider for testing across packages
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Probe(locator string, mimeHint string) filein.ProbeScore {
	args := m.Called(locator, mimeHint)
	return args.Get(0).(filein.ProbeScore)
}

func (m *MockProvider) NewAdapter(cfg *config.Config) (filein.SourceAdapter, error) {
	args := m.Called(cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(filein.SourceAdapter), args.Error(1)
}

var _ filein.Provider = (*MockProvider)(nil)

// MockSourceAdapter implements filein.SourceAdapter for testing across packages
type MockSourceAdapter struct {
	mock.Mock
}

func (m *MockSourceAdapter) PortID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSourceAdapter) Initialize(host filein.Host) error {
	args := m.Called(host)
	return args.Error(0)
}

func (m *MockSourceAdapter) Process() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSourceAdapter) HandleEvent(evt *filein.Event) bool {
	args := m.Called(evt)
	return args.Bool(0)
}

func (m *MockSourceAdapter) Finalize() {
	m.Called()
}

var _ filein.SourceAdapter = (*MockSourceAdapter)(nil)

// MockSink implements filein.Sink for testing across packages
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Consume(port filein.Port, pck *filein.Packet) error {
	args := m.Called(port, pck)
	return args.Error(0)
}

var _ filein.Sink = (*MockSink)(nil)
