package native

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrSymbolNotFound = errors.New("native: symbol not found")
	ErrSymbolShape    = errors.New("native: symbol has unexpected shape")
	ErrClosed         = errors.New("native: library closed")
	ErrUnsupported    = errors.New("native: dynamic loading unsupported on this platform")
)

// Loader opens native modules by path.
type Loader interface {
	Open(path string) (Library, error)
}

// Library is one open native handle. Close releases it; later calls fail with
// ErrClosed and a second Close is a no-op.
type Library interface {
	Path() string
	// Bind resolves symbol and stores a typed caller for it in fptr, which
	// must be a non-nil pointer to a func variable.
	Bind(symbol string, fptr any) error
	// Int reads an exported C int.
	Int(symbol string) (int, error)
	Close() error
}

// Suffixes lists the shared library extensions recognised on any platform.
var Suffixes = []string{".so", ".dylib", ".dll"}

// IsSharedLibrary reports whether name carries a shared library suffix,
// including versioned forms such as libx.so.1.
func IsSharedLibrary(name string) bool {
	for _, suffix := range Suffixes {
		if strings.HasSuffix(name, suffix) || strings.Contains(name, suffix+".") {
			return true
		}
	}
	return false
}

// CheckFuncPtr validates the fptr argument accepted by Library.Bind.
func CheckFuncPtr(fptr any) error {
	v := reflect.ValueOf(fptr)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: want pointer to func, got %T", ErrSymbolShape, fptr)
	}
	if v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("%w: want pointer to func, got %T", ErrSymbolShape, fptr)
	}
	return nil
}
