//go:build darwin || linux || freebsd

package native

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// DlLoader opens libraries with dlopen. Mode defaults to RTLD_NOW|RTLD_LOCAL
// so unresolved link dependencies fail at open time.
type DlLoader struct {
	Mode int
}

func NewDlLoader() DlLoader {
	return DlLoader{Mode: purego.RTLD_NOW | purego.RTLD_LOCAL}
}

func (l DlLoader) Open(path string) (Library, error) {
	mode := l.Mode
	if mode == 0 {
		mode = purego.RTLD_NOW | purego.RTLD_LOCAL
	}
	handle, err := purego.Dlopen(path, mode)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	return &dlLibrary{path: path, handle: handle}, nil
}

type dlLibrary struct {
	mu     sync.Mutex
	path   string
	handle uintptr
	closed bool
}

func (d *dlLibrary) Path() string {
	return d.path
}

func (d *dlLibrary) lookup(symbol string) (uintptr, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	addr, err := purego.Dlsym(d.handle, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, symbol, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return addr, nil
}

// Bind cannot check C signatures; the declared Go type is trusted.
func (d *dlLibrary) Bind(symbol string, fptr any) (err error) {
	if err := CheckFuncPtr(fptr); err != nil {
		return fmt.Errorf("%s: %w", symbol, err)
	}
	addr, err := d.lookup(symbol)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrSymbolShape, symbol, r)
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}

func (d *dlLibrary) Int(symbol string) (int, error) {
	addr, err := d.lookup(symbol)
	if err != nil {
		return 0, err
	}
	// addr comes from dlsym and points into the library's data segment, not
	// the Go heap. Going through &addr keeps the uintptr conversion explicit.
	ptr := *(*unsafe.Pointer)(unsafe.Pointer(&addr))
	return int(*(*int32)(ptr)), nil
}

func (d *dlLibrary) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if err := purego.Dlclose(d.handle); err != nil {
		return fmt.Errorf("dlclose %s: %w", d.path, err)
	}
	return nil
}
