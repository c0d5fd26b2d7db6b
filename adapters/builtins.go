package adapters

type BuiltInAdapterType = string

const (
	FileInAdapterType BuiltInAdapterType = "filein"
)

// RegisterBuiltins registers all built-in adapters on r by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, adapters ...BuiltInAdapterType) {
	if len(adapters) == 0 {
		// Include all built-in adapters here when adding implementations
		adapters = append(adapters, FileInAdapterType)
	}

	for _, key := range adapters {
		switch key {
		case FileInAdapterType:
			r.Register(FileInAdapterType, &FileInProvider{})
		}
	}
}
