// Package fakelib provides an in-memory native.Loader for tests. Modules
// behave like the C plugin template: fixed 256-byte parameter slots, a strict
// count check on setParams and a capacity check on getParams.
package fakelib

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/danmuck/plugctl/internal/native"
	"github.com/danmuck/plugctl/internal/protocol"
)

// Generation selects which ABI symbol set a module exports.
type Generation int

const (
	// GenFunctions exports getNumArgs/getParamInfo/displayPluginInfo.
	GenFunctions Generation = iota
	// GenStatic exports NUM_ARGS/queryParamInfo.
	GenStatic
)

// Module is one fake plugin.
type Module struct {
	mu sync.Mutex

	Gen     Generation
	Names   []string
	Values  []string
	NumArgs int
	Info    string

	RunStatus     int32
	RunElapsed    time.Duration
	RunDelay      time.Duration
	FailGetParams bool
	FailSetParams bool

	// Missing hides symbols; Override replaces a symbol with another func.
	Missing  map[string]bool
	Override map[string]any

	runs       int
	observed   [][]string
	pushes     []string
	lastMillis int64
	inFlight   atomic.Int32
	overlapped atomic.Bool
}

// NewModule returns a module declaring names with initial values.
func NewModule(gen Generation, names []string, values []string) *Module {
	return &Module{
		Gen:     gen,
		Names:   append([]string(nil), names...),
		Values:  append([]string(nil), values...),
		NumArgs: len(names),
	}
}

// Runs returns how many times run was called.
func (m *Module) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

// Observed returns the parameter values seen by each run, in call order.
func (m *Module) Observed() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.observed))
	for i, v := range m.observed {
		out[i] = append([]string(nil), v...)
	}
	return out
}

// Pushes returns every buffer received through setParams.
func (m *Module) Pushes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.pushes...)
}

// Overlapped reports whether two runs were ever in flight at once.
func (m *Module) Overlapped() bool {
	return m.overlapped.Load()
}

func (m *Module) CurrentValues() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Values...)
}

func (m *Module) run() int32 {
	if m.inFlight.Add(1) > 1 {
		m.overlapped.Store(true)
	}
	defer m.inFlight.Add(-1)
	if m.RunDelay > 0 {
		time.Sleep(m.RunDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.observed = append(m.observed, append([]string(nil), m.Values...))
	m.lastMillis = m.RunElapsed.Milliseconds()
	return m.RunStatus
}

func (m *Module) setParams(buf string) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, buf)
	if m.FailSetParams {
		return protocol.StatusError
	}
	values, err := protocol.SplitValues(buf, m.NumArgs)
	if err != nil {
		return protocol.StatusError
	}
	// Like strtok, empty tokens are skipped, so later values move into
	// earlier slots and trailing slots keep their old contents.
	next := make([]string, m.NumArgs)
	copy(next, m.Values)
	slot := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		next[slot] = v
		slot++
	}
	m.Values = next
	return protocol.StatusOK
}

func (m *Module) getParams(buf *byte, size int32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGetParams || buf == nil || size < 1 {
		return protocol.StatusError
	}
	joined := protocol.JoinValues(m.Values)
	if len(joined)+1 > int(size) {
		return protocol.StatusError
	}
	dst := unsafe.Slice(buf, int(size))
	n := copy(dst, joined)
	dst[n] = protocol.Terminator
	return protocol.StatusOK
}

func (m *Module) nameList() string {
	out := ""
	for i, name := range m.Names {
		if i > 0 {
			out += string(protocol.NameSeparator)
		}
		out += name
	}
	return out
}

func (m *Module) symbols() map[string]any {
	syms := map[string]any{
		"run":        m.run,
		"setParams":  m.setParams,
		"getParams":  m.getParams,
		"getRunTime": func() int64 { m.mu.Lock(); defer m.mu.Unlock(); return m.lastMillis },
	}
	switch m.Gen {
	case GenStatic:
		syms["queryParamInfo"] = m.nameList
	default:
		syms["getNumArgs"] = func() int32 { return int32(m.NumArgs) }
		syms["getParamInfo"] = m.nameList
		syms["displayPluginInfo"] = func() string { return m.Info }
	}
	for name, fn := range m.Override {
		syms[name] = fn
	}
	for name := range m.Missing {
		delete(syms, name)
	}
	return syms
}

// Loader serves registered modules by path and counts handles.
type Loader struct {
	mu      sync.Mutex
	modules map[string]*Module
	opened  int
	closed  int
}

func NewLoader() *Loader {
	return &Loader{modules: make(map[string]*Module)}
}

// Add makes m loadable at path.
func (l *Loader) Add(path string, m *Module) *Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modules[path] = m
	return m
}

func (l *Loader) Open(path string) (native.Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.modules[path]
	if !ok {
		return nil, fmt.Errorf("dlopen %s: cannot open shared object file: No such file or directory", path)
	}
	l.opened++
	return &library{loader: l, path: path, module: m, syms: m.symbols()}, nil
}

// Opened counts successful opens.
func (l *Loader) Opened() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened
}

// Closed counts releases.
func (l *Loader) Closed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Live counts handles opened and not yet released.
func (l *Loader) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened - l.closed
}

type library struct {
	loader *Loader
	path   string
	module *Module
	syms   map[string]any
	closed atomic.Bool
}

func (b *library) Path() string {
	return b.path
}

func (b *library) Bind(symbol string, fptr any) error {
	if b.closed.Load() {
		return native.ErrClosed
	}
	if err := native.CheckFuncPtr(fptr); err != nil {
		return fmt.Errorf("%s: %w", symbol, err)
	}
	impl, ok := b.syms[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", native.ErrSymbolNotFound, symbol)
	}
	target := reflect.ValueOf(fptr).Elem()
	value := reflect.ValueOf(impl)
	if value.Type() != target.Type() {
		return fmt.Errorf("%w: %s is %s, want %s", native.ErrSymbolShape, symbol, value.Type(), target.Type())
	}
	target.Set(value)
	return nil
}

func (b *library) Int(symbol string) (int, error) {
	if b.closed.Load() {
		return 0, native.ErrClosed
	}
	if symbol != "NUM_ARGS" || b.module.Gen != GenStatic || b.module.Missing[symbol] {
		return 0, fmt.Errorf("%w: %s", native.ErrSymbolNotFound, symbol)
	}
	return b.module.NumArgs, nil
}

func (b *library) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.loader.mu.Lock()
	b.loader.closed++
	b.loader.mu.Unlock()
	return nil
}
