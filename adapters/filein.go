package adapters

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/brettbedarf/filein"
	"github.com/brettbedarf/filein/config"
	"github.com/brettbedarf/filein/internal/locator"
	"github.com/brettbedarf/filein/internal/sniff"
	"github.com/brettbedarf/filein/internal/util"
)

// FileInProvider creates [FileIn] adapters for local files
type FileInProvider struct{}

// Probe reports whether the locator names an existing local file. It never
// opens the file; only the fragment, query and file scheme are stripped before
// the existence check. The MIME hint is unused.
func (p *FileInProvider) Probe(src string, mimeHint string) filein.ProbeScore {
	fi, err := os.Stat(locator.Path(src))
	if err != nil || fi.IsDir() {
		return filein.ProbeNotSupported
	}
	return filein.ProbeSupported
}

func (p *FileInProvider) NewAdapter(cfg *config.Config) (filein.SourceAdapter, error) {
	return NewFileIn(cfg), nil
}

var _ filein.Provider = (*FileInProvider)(nil)

type fileInState int

const (
	stateUninitialized fileInState = iota
	stateOpened
	stateEmitted
	stateFinalized
)

func (s fileInState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateOpened:
		return "opened"
	case stateEmitted:
		return "emitted"
	case stateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("fileInState(%d)", int(s))
	}
}

// FileIn reads a local resource and emits it as a single packet on one output
// port, followed by end of stream.
//
// States move Uninitialized -> Opened -> Emitted -> Finalized. Once Emitted,
// Process only reports [filein.ErrEOS]. The read buffer backing the emitted
// packet is shared with downstream and is only released by Finalize.
type FileIn struct {
	src       string // configured locator, never modified
	blockSize uint32
	portID    string

	host     filein.Host
	port     filein.Port
	loc      locator.Locator
	file     *os.File
	fileSize uint64
	block    []byte // blockSize+1 bytes, the extra one holds the NUL sentinel
	startMs  uint64
	state    fileInState

	logger util.Logger
}

// NewFileIn creates an unopened adapter for cfg.Src. Configuration problems
// surface from Initialize.
func NewFileIn(cfg *config.Config) *FileIn {
	portID := uuid.NewString()
	return &FileIn{
		src:       cfg.Src,
		blockSize: cfg.BlockSize,
		portID:    portID,
		logger:    util.GetLogger("filein").With().Str("port", portID).Logger(),
	}
}

var _ filein.SourceAdapter = (*FileIn)(nil)

func (f *FileIn) PortID() string { return f.portID }

// Port returns the declared output port, nil before the first Process
func (f *FileIn) Port() filein.Port { return f.port }

// FileSize is the resource length measured at Initialize
func (f *FileIn) FileSize() uint64 { return f.fileSize }

// StartOffset is the composition time in milliseconds given to the packet
func (f *FileIn) StartOffset() uint64 { return f.startMs }

// Initialize validates the configuration and opens the resource.
// On failure nothing is retained and the error is reported to the host.
func (f *FileIn) Initialize(host filein.Host) error {
	if f.state != stateUninitialized {
		return fmt.Errorf("filein: initialize in state %s", f.state)
	}
	f.host = host
	if err := f.open(); err != nil {
		host.SetupFailure(err)
		return err
	}
	f.state = stateOpened
	return nil
}

func (f *FileIn) open() error {
	if f.src == "" {
		return fmt.Errorf("%w: src is required", filein.ErrBadConfiguration)
	}
	if f.blockSize == 0 || f.blockSize == math.MaxUint32 {
		return fmt.Errorf("%w: invalid block_size %d", filein.ErrBadConfiguration, f.blockSize)
	}

	loc, err := locator.Normalize(f.src)
	if err != nil {
		f.logger.Warn().Str("src", f.src).Msg("Not a local locator")
		return fmt.Errorf("%w: %s", filein.ErrUnsupportedLocator, f.src)
	}

	file, err := os.Open(loc.Path)
	if err != nil {
		f.logger.Error().Err(err).Str("path", loc.Path).Msg("Failed to open")
		return fmt.Errorf("%w: %w", filein.ErrResourceUnreachable, err)
	}

	size, err := measure(file)
	if err != nil {
		file.Close() // nolint:errcheck
		f.logger.Error().Err(err).Str("path", loc.Path).Msg("Failed to measure")
		return fmt.Errorf("%w: %w", filein.ErrResourceUnreachable, err)
	}

	f.loc = loc
	f.file = file
	f.fileSize = size
	f.block = make([]byte, int(f.blockSize)+1)
	f.logger.Debug().
		Str("path", loc.Path).
		Str("size", humanize.Bytes(size)).
		Uint64("bytes", size).
		Msg("Opened resource")
	return nil
}

// measure returns the byte length of file and rewinds it
func measure(file *os.File) (uint64, error) {
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return uint64(end), nil
}

// Process reads up to block_size bytes, declares the output port and sends them
// as the single packet of the stream. Every call returns [filein.ErrEOS] once
// that is done. No step is retried: a failed read or port declaration also
// ends the stream.
func (f *FileIn) Process() error {
	switch f.state {
	case stateEmitted, stateFinalized:
		return filein.ErrEOS
	case stateUninitialized:
		return filein.ErrNotInitialized
	}
	f.state = stateEmitted

	n, err := io.ReadFull(f.file, f.block[:f.blockSize])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		f.logger.Error().Err(err).Str("src", f.src).Msg("Failed to read")
		return fmt.Errorf("%w: %w", filein.ErrReadFailed, err)
	}
	f.block[n] = 0
	data := f.block[:n]

	port, err := f.declarePort(f.src, f.src, "", f.block[:n+1])
	if err != nil {
		return err
	}
	f.port = port

	pck := filein.NewSharedPacket(data)
	pck.CTS = f.startMs
	pck.SetFraming(true, true)
	pck.SAP = filein.SAPType1
	pck.SetProperty(filein.PropByteOffset, uint64(0))

	sendErr := port.Send(pck)
	port.SetEOS()
	if sendErr != nil {
		f.logger.Error().Err(sendErr).Msg("Downstream rejected packet")
		return fmt.Errorf("send packet: %w", sendErr)
	}

	f.logger.Debug().Int("bytes", n).Uint64("cts", pck.CTS).Msg("Emitted packet")
	return filein.ErrEOS
}

// declarePort creates the output port and attaches its metadata. mimeType wins
// over sniffing; probe is only sniffed when no MIME type is supplied.
func (f *FileIn) declarePort(url, localFile, mimeType string, probe []byte) (filein.Port, error) {
	port, err := f.host.DeclarePort(f.portID)
	if err == nil && port == nil {
		err = errors.New("host returned no port")
	}
	if err != nil {
		f.logger.Error().Err(err).Msg("Failed to declare output port")
		return nil, fmt.Errorf("%w: %w", filein.ErrPortDeclarationFailed, err)
	}

	if localFile != "" {
		port.SetProperty(filein.PropFilePath, localFile)
	}
	port.SetProperty(filein.PropURL, url)

	if mimeType == "" && probe != nil {
		mimeType = sniff.Sniff(probe)
	}
	if f.loc.Ext != "" {
		port.SetProperty(filein.PropFileExt, f.loc.Ext)
	}
	if mimeType != "" {
		port.SetProperty(filein.PropMIME, mimeType)
	}

	f.logger.Debug().
		Str("url", url).
		Str("ext", f.loc.Ext).
		Str("mime", mimeType).
		Msg("Declared output port")
	return port, nil
}

// HandleEvent consumes play and stop signals addressed to this adapter's port.
// A play signal only affects the packet if it arrives before the first Process.
func (f *FileIn) HandleEvent(evt *filein.Event) bool {
	if evt == nil || evt.PortID == "" || evt.PortID != f.portID {
		return false
	}

	switch evt.Type {
	case filein.EventPlay:
		f.startMs = secondsToMs(evt.StartRange)
		f.logger.Trace().Float64("start_range", evt.StartRange).Uint64("start_ms", f.startMs).Msg("Play")
		return true
	case filein.EventStop:
		f.logger.Trace().Msg("Stop")
		return true
	default:
		return false
	}
}

// secondsToMs rounds to the nearest millisecond. Negative and NaN ranges map to 0.
func secondsToMs(s float64) uint64 {
	ms := math.Round(1000 * s)
	switch {
	case !(ms > 0):
		return 0
	case ms >= math.MaxUint64:
		return math.MaxUint64
	default:
		return uint64(ms)
	}
}

// Finalize closes the file and drops the read buffer. Packets already sent
// keep their own reference to the data. Safe to call in any state, repeatedly.
func (f *FileIn) Finalize() {
	if f.file != nil {
		if err := f.file.Close(); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to close resource")
		}
		f.file = nil
	}
	f.block = nil
	f.state = stateFinalized
}
