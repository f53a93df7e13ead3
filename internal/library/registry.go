package library

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/genricoloni/tunedeck/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Scheme prefixes every reference handed out by the Registry
const Scheme = "local"

// Registry maps transient local:// references to files on disk.
// A reference is valid from Acquire until its handle is released.
type Registry struct {
	logger  *zap.Logger
	fs      afero.Fs
	mu      sync.RWMutex
	entries map[string]string // ref -> path
}

// NewRegistry creates an empty registry resolving paths on fs
func NewRegistry(logger *zap.Logger, fs afero.Fs) *Registry {
	return &Registry{
		logger:  logger,
		fs:      fs,
		entries: make(map[string]string),
	}
}

// Acquire registers the file and returns a handle owning its reference.
// The reference keeps the file name so decoders can pick a format from it.
func (r *Registry) Acquire(file domain.LocalFile) (domain.Resource, error) {
	info, err := r.fs.Stat(file.Path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", file.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", file.Path)
	}

	ref := Scheme + "://" + uuid.NewString() + "/" + url.PathEscape(file.Name)

	r.mu.Lock()
	r.entries[ref] = file.Path
	r.mu.Unlock()

	r.logger.Debug("Local resource acquired",
		zap.String("ref", ref),
		zap.String("path", file.Path))

	return &handle{registry: r, ref: ref}, nil
}

// Handles reports whether ref belongs to this registry's scheme
func (r *Registry) Handles(ref string) bool {
	return strings.HasPrefix(ref, Scheme+"://")
}

// Open returns a seekable reader over the file behind ref
func (r *Registry) Open(ref string) (io.ReadSeekCloser, error) {
	r.mu.RLock()
	path, ok := r.entries[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %s: %w", ref, domain.ErrReleased)
	}
	return r.fs.Open(path)
}

// Len returns the number of live references
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) release(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[ref]; !ok {
		return fmt.Errorf("release %s: %w", ref, domain.ErrReleased)
	}
	delete(r.entries, ref)

	r.logger.Debug("Local resource released", zap.String("ref", ref))
	return nil
}

// handle is the domain.Resource returned by Acquire
type handle struct {
	registry *Registry
	ref      string
}

func (h *handle) Ref() string {
	return h.ref
}

func (h *handle) Release() error {
	return h.registry.release(h.ref)
}
