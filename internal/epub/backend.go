package epub

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Archive gives read access to the files stored in an opened package.
type Archive interface {
	// ReadFile returns the content of the named entry. Names use forward
	// slashes and are relative to the archive root.
	ReadFile(name string) ([]byte, error)
	// Names lists the archive entries.
	Names() []string
	Close() error
}

// BackendFunc opens an archive from random-access content.
type BackendFunc func(r io.ReaderAt, size int64) (Archive, error)

// DefaultBackend is the name of the zip backend registered by this package.
const DefaultBackend = "zip"

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]BackendFunc)
)

func init() {
	RegisterBackend(DefaultBackend, openZipArchive)
}

// RegisterBackend makes a package backend available under name.
// Registering a nil func removes the backend.
func RegisterBackend(name string, fn BackendFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if fn == nil {
		delete(backends, name)
		return
	}
	backends[name] = fn
}

// Backends returns the names of the registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupBackend(name string) (BackendFunc, error) {
	if name == "" {
		name = DefaultBackend
	}

	backendsMu.RLock()
	defer backendsMu.RUnlock()

	fn, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingDependency, name)
	}
	return fn, nil
}
