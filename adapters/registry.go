package adapters

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/filein"
	"github.com/brettbedarf/filein/config"
)

// ErrNoProvider is returned when no registered provider can serve a request
var ErrNoProvider = errors.New("no provider")

type registration struct {
	provider filein.Provider
	seq      uint64 // registration order, used to break probe ties
}

// Registry maps adapter type names to providers. Safe for concurrent use.
type Registry struct {
	providers *xsync.Map[string, registration]
	seq       atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{providers: xsync.NewMap[string, registration]()}
}

// Register ties a provider to an adapter type name. The first registration of
// a name wins; later ones are ignored and reported with false.
func (r *Registry) Register(adapterType string, provider filein.Provider) bool {
	_, loaded := r.providers.LoadOrStore(adapterType, registration{
		provider: provider,
		seq:      r.seq.Add(1),
	})
	return !loaded
}

// GetProvider returns the provider registered under adapterType
func (r *Registry) GetProvider(adapterType string) (filein.Provider, error) {
	reg, ok := r.providers.Load(adapterType)
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoProvider, adapterType)
	}
	return reg.provider, nil
}

// NewAdapter creates an adapter of the given type configured with cfg
func (r *Registry) NewAdapter(adapterType string, cfg *config.Config) (filein.SourceAdapter, error) {
	provider, err := r.GetProvider(adapterType)
	if err != nil {
		return nil, err
	}
	return provider.NewAdapter(cfg)
}

// Select probes every registered provider and returns the earliest registered
// one that supports the locator. Probes have no side effects so all of them may
// run before one is picked.
func (r *Registry) Select(locator, mimeHint string) (string, filein.Provider, error) {
	var (
		bestName string
		best     registration
		found    bool
	)
	r.providers.Range(func(name string, reg registration) bool {
		if found && reg.seq > best.seq {
			return true
		}
		if reg.provider.Probe(locator, mimeHint) == filein.ProbeSupported {
			bestName, best, found = name, reg, true
		}
		return true
	})
	if !found {
		return "", nil, fmt.Errorf("%w supports %q", ErrNoProvider, locator)
	}
	return bestName, best.provider, nil
}
