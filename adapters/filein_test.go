package adapters

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/filein"
	"github.com/brettbedarf/filein/config"
	"github.com/brettbedarf/filein/internal/mocks"
	"github.com/brettbedarf/filein/internal/sniff"
)

func TestFileIn_EndToEnd(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "<X3D/>abcd")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, port := newMockHost(f)
	var sent *filein.Packet
	port.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*filein.Packet)
	}).Return(nil)

	require.NoError(t, f.Initialize(host))
	assert.Equal(t, uint64(10), f.FileSize())
	assert.Nil(t, f.Port(), "port must not exist before the first process call")

	err := f.Process()
	require.ErrorIs(t, err, filein.ErrEOS)

	host.AssertNumberOfCalls(t, "DeclarePort", 1)
	assert.Same(t, port, f.Port())
	assertProp(t, port, filein.PropURL, src)
	assertProp(t, port, filein.PropFilePath, src)
	assertProp(t, port, filein.PropFileExt, "x3d")
	assertProp(t, port, filein.PropMIME, sniff.MIMEX3D)

	require.NotNil(t, sent)
	assert.Equal(t, []byte("<X3D/>abcd"), sent.Data)
	assert.Equal(t, uint64(0), sent.CTS)
	assert.Equal(t, filein.SAPType1, sent.SAP)
	assert.True(t, sent.Start, "packet must start the stream")
	assert.True(t, sent.End, "packet must end the stream")
	offset, ok := sent.Property(filein.PropByteOffset)
	require.True(t, ok)
	assert.Equal(t, uint64(0), offset)
	port.AssertCalled(t, "SetEOS")

	// Second activation is a no-op reporting end of stream
	err = f.Process()
	require.ErrorIs(t, err, filein.ErrEOS)
	host.AssertNumberOfCalls(t, "DeclarePort", 1)
	port.AssertNumberOfCalls(t, "Send", 1)
	port.AssertNumberOfCalls(t, "SetEOS", 1)

	f.Finalize()
	host.AssertNotCalled(t, "SetupFailure", mock.Anything)
}

func TestFileIn_PacketSharesReadBuffer(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "scene.wrl", "#VRML V2.0 utf8\n")
	f := NewFileIn(createCfg(src, 64))
	host, port := newMockHost(f)
	var sent *filein.Packet
	port.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*filein.Packet)
	}).Return(nil)

	require.NoError(t, f.Initialize(host))
	assert.Len(t, f.block, 65, "buffer must have room for the sentinel byte")
	require.ErrorIs(t, f.Process(), filein.ErrEOS)

	require.NotEmpty(t, sent.Data)
	assert.Same(t, &f.block[0], &sent.Data[0], "packet data must not be copied")
	assert.Equal(t, byte(0), f.block[len(sent.Data)], "sentinel must follow the data")

	f.Finalize()
	assert.Nil(t, f.block)
	assert.Equal(t, []byte("#VRML V2.0 utf8\n"), sent.Data, "sent data must outlive finalize")
}

func TestFileIn_BlockSizeBoundsRead(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "big.bt", "InitialObjectDescriptor {}")
	f := NewFileIn(createCfg(src, 4))
	host, port := newMockHost(f)
	var sent *filein.Packet
	port.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*filein.Packet)
	}).Return(nil)

	require.NoError(t, f.Initialize(host))
	assert.Equal(t, uint64(26), f.FileSize())
	require.ErrorIs(t, f.Process(), filein.ErrEOS)

	assert.Equal(t, []byte("Init"), sent.Data)
	assert.True(t, sent.End, "only one block is ever emitted")
	_, hasMIME := port.Property(filein.PropMIME)
	assert.False(t, hasMIME, "truncated prefix matches no marker")
	assertProp(t, port, filein.PropFileExt, "bt")
}

func TestFileIn_EmptyFile(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "empty.svg", "")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, port := newMockHost(f)
	var sent *filein.Packet
	port.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*filein.Packet)
	}).Return(nil)

	require.NoError(t, f.Initialize(host))
	assert.Equal(t, uint64(0), f.FileSize())
	require.ErrorIs(t, f.Process(), filein.ErrEOS)

	require.NotNil(t, sent)
	assert.Empty(t, sent.Data)
	assertProp(t, port, filein.PropFileExt, "svg")
}

func TestFileIn_FileURLWithFragmentAndQuery(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "scene.xmt.gz", "<XMT-A>")
	src := "file://" + path + "?v=1#top"
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, port := newMockHost(f)
	port.On("Send", mock.Anything).Return(nil)

	require.NoError(t, f.Initialize(host))
	require.ErrorIs(t, f.Process(), filein.ErrEOS)

	assert.Equal(t, "file://"+path+"?v=1#top", f.src, "configured locator must be unchanged")
	assertProp(t, port, filein.PropURL, src)
	assertProp(t, port, filein.PropFilePath, src)
	assertProp(t, port, filein.PropFileExt, "xmt")
	assertProp(t, port, filein.PropMIME, sniff.MIMEXMT)
}

func TestFileIn_StartBeforeProcess(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "0123456789")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, port := newMockHost(f)
	var sent *filein.Packet
	port.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*filein.Packet)
	}).Return(nil)

	require.NoError(t, f.Initialize(host))
	handled := f.HandleEvent(&filein.Event{Type: filein.EventPlay, PortID: f.PortID(), StartRange: 2.5})
	require.True(t, handled)
	require.ErrorIs(t, f.Process(), filein.ErrEOS)

	assert.Equal(t, uint64(2500), sent.CTS)
}

func TestFileIn_HandleEvent(t *testing.T) {
	t.Parallel()

	f := NewFileIn(createCfg("unused.x3d", config.DefaultBlockSize))

	tests := []struct {
		name    string
		evt     *filein.Event
		handled bool
	}{
		{"nil event", nil, false},
		{"no target port", &filein.Event{Type: filein.EventPlay, StartRange: 1}, false},
		{"other port", &filein.Event{Type: filein.EventPlay, PortID: "other", StartRange: 1}, false},
		{"unknown type", &filein.Event{Type: filein.EventUnknown, PortID: f.PortID()}, false},
		{"stop", &filein.Event{Type: filein.EventStop, PortID: f.PortID()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.handled, f.HandleEvent(tt.evt))
			assert.Equal(t, uint64(0), f.StartOffset(), "start offset must be untouched")
		})
	}

	assert.True(t, f.HandleEvent(&filein.Event{Type: filein.EventPlay, PortID: f.PortID(), StartRange: 0.0016}))
	assert.Equal(t, uint64(2), f.StartOffset(), "start must round to the nearest millisecond")
}

func TestFileIn_PlayAfterEmissionHasNoEffect(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "0123456789")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, port := newMockHost(f)
	var sent *filein.Packet
	port.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*filein.Packet)
	}).Return(nil)

	require.NoError(t, f.Initialize(host))
	require.ErrorIs(t, f.Process(), filein.ErrEOS)
	assert.True(t, f.HandleEvent(&filein.Event{Type: filein.EventPlay, PortID: f.PortID(), StartRange: 3}))
	require.ErrorIs(t, f.Process(), filein.ErrEOS)

	assert.Equal(t, uint64(0), sent.CTS)
	port.AssertNumberOfCalls(t, "Send", 1)
}

func TestFileIn_InitializeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    *config.Config
		expErr error
	}{
		{"missing src", createCfg("", config.DefaultBlockSize), filein.ErrBadConfiguration},
		{"zero block size", createCfg("test.x3d", 0), filein.ErrBadConfiguration},
		{"non-local scheme", createCfg("http://example.com/test.x3d", config.DefaultBlockSize), filein.ErrUnsupportedLocator},
		{"missing file", createCfg(filepath.Join(t.TempDir(), "missing.x3d"), config.DefaultBlockSize), filein.ErrResourceUnreachable},
		{"missing file url", createCfg("file://"+filepath.Join(t.TempDir(), "missing.x3d#frag"), config.DefaultBlockSize), filein.ErrResourceUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := tt.cfg.Src
			f := NewFileIn(tt.cfg)
			host := &mocks.MockHost{}
			host.On("SetupFailure", mock.MatchedBy(func(err error) bool {
				return errors.Is(err, tt.expErr)
			})).Return()

			err := f.Initialize(host)

			require.ErrorIs(t, err, tt.expErr)
			host.AssertExpectations(t)
			host.AssertNotCalled(t, "DeclarePort", mock.Anything)
			assert.Nil(t, f.file, "no handle may be retained")
			assert.Nil(t, f.block)
			assert.Equal(t, src, f.src, "configured locator must be unchanged")
			assert.ErrorIs(t, f.Process(), filein.ErrNotInitialized)

			// Finalize after failed initialize is a safe no-op
			assert.NotPanics(t, f.Finalize)
			assert.NotPanics(t, f.Finalize)
		})
	}
}

func TestFileIn_InitializeTwice(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "0123456789")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, _ := newMockHost(f)

	require.NoError(t, f.Initialize(host))
	assert.Error(t, f.Initialize(host))
	host.AssertNotCalled(t, "SetupFailure", mock.Anything)
	f.Finalize()
}

func TestFileIn_PortDeclarationFailed(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "0123456789")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host := &mocks.MockHost{}
	host.On("DeclarePort", f.PortID()).Return(nil, errors.New("graph closed"))

	require.NoError(t, f.Initialize(host))
	err := f.Process()

	require.ErrorIs(t, err, filein.ErrPortDeclarationFailed)
	assert.Nil(t, f.Port())
	assert.ErrorIs(t, f.Process(), filein.ErrEOS, "no retry after a failed declaration")
	host.AssertNumberOfCalls(t, "DeclarePort", 1)
	f.Finalize()
}

func TestFileIn_SendFailure(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "0123456789")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, port := newMockHost(f)
	expErr := errors.New("sink full")
	port.On("Send", mock.Anything).Return(expErr)

	require.NoError(t, f.Initialize(host))
	err := f.Process()

	require.ErrorIs(t, err, expErr)
	port.AssertCalled(t, "SetEOS")
	assert.ErrorIs(t, f.Process(), filein.ErrEOS)
	f.Finalize()
}

func TestFileIn_ProcessAfterFinalize(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "test.x3d", "0123456789")
	f := NewFileIn(createCfg(src, config.DefaultBlockSize))
	host, _ := newMockHost(f)

	require.NoError(t, f.Initialize(host))
	f.Finalize()

	assert.Nil(t, f.file)
	assert.ErrorIs(t, f.Process(), filein.ErrEOS)
	host.AssertNotCalled(t, "DeclarePort", mock.Anything)
}

func TestFileInProvider_Probe(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "scene.svg", "<svg/>")
	dir := t.TempDir()
	p := &FileInProvider{}

	tests := []struct {
		name    string
		locator string
		want    filein.ProbeScore
	}{
		{"existing path", path, filein.ProbeSupported},
		{"file url", "file://" + path, filein.ProbeSupported},
		{"file scheme", "file:" + path, filein.ProbeSupported},
		{"fragment and query", path + "?x=1#frag", filein.ProbeSupported},
		{"missing path", filepath.Join(dir, "missing.svg"), filein.ProbeNotSupported},
		{"directory", dir, filein.ProbeNotSupported},
		{"remote scheme", "http://example.com/scene.svg", filein.ProbeNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			locator := tt.locator
			assert.Equal(t, tt.want, p.Probe(locator, ""))
			assert.Equal(t, tt.want, p.Probe(locator, ""), "probe must be idempotent")
			assert.Equal(t, tt.locator, locator)
		})
	}
}

func TestSecondsToMs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want uint64
	}{
		{0, 0},
		{2.5, 2500},
		{0.0004, 0},
		{0.0005, 1},
		{1.2346, 1235},
		{-1, 0},
		{math.NaN(), 0},
		{math.Inf(1), math.MaxUint64},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, secondsToMs(tt.in), "secondsToMs(%v)", tt.in)
	}
}

// Test helpers

func createCfg(src string, blockSize uint32) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Src = src
	cfg.BlockSize = blockSize
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newMockHost returns a host that declares a recording port for f. Send
// expectations are left to the test.
func newMockHost(f *FileIn) (*mocks.MockHost, *mocks.MockPort) {
	port := &mocks.MockPort{}
	port.On("ID").Return(f.PortID()).Maybe()
	port.On("SetProperty", mock.Anything, mock.Anything).Return()
	port.On("SetEOS").Return()

	host := &mocks.MockHost{}
	host.On("DeclarePort", f.PortID()).Return(port, nil)
	host.On("SetupFailure", mock.Anything).Return().Maybe()
	return host, port
}

func assertProp(t *testing.T, port filein.Port, key filein.PropKey, want any) {
	t.Helper()
	got, ok := port.Property(key)
	require.True(t, ok, "property %s must be set", key)
	assert.Equal(t, want, got, "property %s", key)
}
