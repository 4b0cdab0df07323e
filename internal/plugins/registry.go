package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/danmuck/plugctl/internal/logging"
	"github.com/danmuck/plugctl/internal/native"
	"github.com/danmuck/plugctl/internal/observability"
	"github.com/rs/zerolog"
)

// Registry keeps loaded plugins by short name in load order.
type Registry struct {
	mu      sync.RWMutex
	loader  native.Loader
	plugins map[string]*Plugin
	order   []string
	logger  zerolog.Logger
}

func NewRegistry(loader native.Loader) *Registry {
	return &Registry{
		loader:  loader,
		plugins: make(map[string]*Plugin),
		logger:  logging.Component("registry"),
	}
}

// Load opens the module at path and registers it under its short name. A
// name that is already registered is rejected before the module is opened.
// The write lock is held across the open so two loads of one name cannot
// race.
func (r *Registry) Load(path string) (*Plugin, error) {
	name := ShortName(path)
	if name == "" || name == "." {
		return nil, fmt.Errorf("%w: empty plugin name in %q", ErrLoadFailure, path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		observability.RecordLoad(observability.LoadDuplicate)
		return nil, fmt.Errorf("%w: %q", ErrAlreadyLoaded, name)
	}

	r.logger.Info().Str("path", path).Str("plugin", name).Msg("loading")
	p, err := Open(r.loader, path)
	if err != nil {
		observability.RecordLoad(observability.LoadFailed)
		r.logger.Error().Err(err).Str("path", path).Msg("load failed")
		return nil, err
	}

	r.plugins[name] = p
	r.order = append(r.order, name)
	observability.RecordLoad(observability.LoadOK)
	observability.SetLoaded(len(r.order))
	r.logger.Info().
		Str("plugin", name).
		Str("abi", p.Generation().String()).
		Int("params", p.NumParams()).
		Msg("loaded")
	return p, nil
}

// LoadDir loads every shared library in dir in lexical order. Per-file
// failures are joined into the returned error; the names that did load are
// returned either way.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read plugin dir %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !native.IsSharedLibrary(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	var (
		loaded []string
		errs   []error
	)
	for _, file := range files {
		p, err := r.Load(filepath.Join(dir, file))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		loaded = append(loaded, p.Name())
	}
	return loaded, errors.Join(errs...)
}

func (r *Registry) Lookup(name string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Get is Lookup with ErrNotFound for absent names.
func (r *Registry) Get(name string) (*Plugin, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// Names returns registered names in load order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshots describes every plugin in load order.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	list := make([]*Plugin, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.plugins[name])
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(list))
	for _, p := range list {
		out = append(out, p.Snapshot())
	}
	return out
}

// Unload removes name and releases its handle.
func (r *Registry) Unload(name string) error {
	r.mu.Lock()
	p, ok := r.plugins[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	observability.SetLoaded(len(r.order))
	r.mu.Unlock()

	r.logger.Info().Str("plugin", name).Msg("unloaded")
	return p.Close()
}

// Close releases every plugin, most recently loaded first, and empties the
// registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	order := r.order
	plugins := r.plugins
	r.order = nil
	r.plugins = make(map[string]*Plugin)
	observability.SetLoaded(0)
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := plugins[order[i]].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(order) > 0 {
		r.logger.Info().Int("released", len(order)).Msg("registry closed")
	}
	return errors.Join(errs...)
}
