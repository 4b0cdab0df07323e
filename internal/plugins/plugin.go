package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/plugctl/internal/logging"
	"github.com/danmuck/plugctl/internal/native"
	"github.com/danmuck/plugctl/internal/observability"
	"github.com/danmuck/plugctl/internal/params"
	"github.com/danmuck/plugctl/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Plugin owns one loaded native module.
type Plugin struct {
	mu        sync.Mutex
	name      string
	path      string
	lib       native.Library
	abi       ABI
	numParams int
	params    *params.Map
	loadedAt  time.Time
	lastRun   *RunResult
	closed    bool
	logger    zerolog.Logger
}

// RunResult describes one Run call.
type RunResult struct {
	ID      string        `json:"id"`
	Status  int           `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	// PushErr is set when the pre-run parameter push failed. The run still
	// happened with whatever values the module held.
	PushErr error `json:"-"`
}

func (r RunResult) Failed() bool {
	return protocol.Failed(r.Status)
}

// Snapshot is a point-in-time view of a binding.
type Snapshot struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Generation string         `json:"generation"`
	NumParams  int            `json:"num_params"`
	Params     []params.Entry `json:"params"`
	LoadedAt   time.Time      `json:"loaded_at"`
	LastRun    *RunResult     `json:"last_run,omitempty"`
}

// Open loads the module at path and binds it. On any failure the native
// handle is released before the error is returned.
func Open(loader native.Loader, path string) (*Plugin, error) {
	name := ShortName(path)
	logger := logging.Component("plugins").With().Str("plugin", name).Logger()

	lib, err := loader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailure, err)
	}

	p, err := bind(lib, name, path, logger)
	if err != nil {
		if cerr := lib.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("release after failed bind")
		}
		return nil, err
	}
	return p, nil
}

func bind(lib native.Library, name, path string, logger zerolog.Logger) (*Plugin, error) {
	abi, err := resolveABI(lib)
	if err != nil {
		return nil, err
	}
	n := abi.NumParams()
	if n < 0 {
		return nil, fmt.Errorf("%w: negative parameter count %d", ErrSymbolMissing, n)
	}

	p := &Plugin{
		name:      name,
		path:      path,
		lib:       lib,
		abi:       abi,
		numParams: n,
		params:    params.New(),
		loadedAt:  time.Now(),
		logger:    logger.With().Str("abi", abi.Generation().String()).Logger(),
	}
	if err := p.refreshLocked(); err != nil && !errors.Is(err, protocol.ErrCountMismatch) {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) Name() string {
	return p.name
}

func (p *Plugin) Path() string {
	return p.path
}

func (p *Plugin) NumParams() int {
	return p.numParams
}

func (p *Plugin) Generation() Generation {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.abi == nil {
		return GenerationUnknown
	}
	return p.abi.Generation()
}

// Params returns the parameter set in container order.
func (p *Plugin) Params() []params.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.Entries()
}

func (p *Plugin) Param(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.Get(key)
}

func (p *Plugin) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	gen := GenerationUnknown
	if p.abi != nil {
		gen = p.abi.Generation()
	}
	var last *RunResult
	if p.lastRun != nil {
		cp := *p.lastRun
		last = &cp
	}
	return Snapshot{
		Name:       p.name,
		Path:       p.path,
		Generation: gen.String(),
		NumParams:  p.numParams,
		Params:     p.params.Entries(),
		LoadedAt:   p.loadedAt,
		LastRun:    last,
	}
}

// RefreshParameters pulls names and values from the module and replaces the
// whole parameter set. A returned ErrCountMismatch is a warning: the set was
// still replaced with the pairs that lined up.
func (p *Plugin) RefreshParameters() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.refreshLocked()
}

func (p *Plugin) refreshLocked() error {
	if p.numParams == 0 {
		p.params.Clear()
		return nil
	}
	buf := make([]byte, protocol.Capacity(p.numParams))
	if status := p.abi.GetParams(buf); protocol.Failed(status) {
		p.logger.Warn().Int("status", status).Msg("getParams failed")
		return fmt.Errorf("%w: getParams returned %d", ErrParamsRejected, status)
	}
	decoded, err := protocol.Decode(p.abi.ParamNames(), cString(buf))
	p.params.Replace(decoded)
	if err != nil {
		p.logger.Warn().Err(err).Int("declared", p.numParams).Msg("parameter names and values disagree")
		return err
	}
	p.logger.Debug().Int("params", p.params.Len()).Msg("parameters refreshed")
	return nil
}

// SetParam updates a parameter the module declared. Keys are never added.
func (p *Plugin) SetParam(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := protocol.ValidateValue(value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if !p.params.Update(key, value) {
		p.logger.Warn().Str("key", key).Msg("set on undeclared parameter")
		return fmt.Errorf("%w: %q", ErrUnknownParameter, key)
	}
	return nil
}

// Run pushes the current parameter set into the module, then calls its run
// entry point. A failed push is reported in the result but does not prevent
// the run.
func (p *Plugin) Run() (RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return RunResult{}, ErrClosed
	}

	res := RunResult{ID: uuid.NewString()}
	if err := p.pushLocked(); err != nil {
		res.PushErr = err
		observability.RecordPush(p.name, false)
		p.logger.Warn().Err(err).Str("run_id", res.ID).Msg("parameter push failed; running with module values")
	} else {
		observability.RecordPush(p.name, true)
	}

	start := time.Now()
	res.Status = p.abi.Run()
	res.Elapsed = time.Since(start)
	observability.RecordRun(p.name, res.Status, res.Elapsed)

	event := p.logger.Info()
	if res.Failed() {
		event = p.logger.Warn()
	}
	event.Str("run_id", res.ID).Int("status", res.Status).Dur("elapsed", res.Elapsed).Msg("run finished")

	last := res
	p.lastRun = &last
	return res, nil
}

func (p *Plugin) pushLocked() error {
	if p.params.Len() != p.numParams {
		return fmt.Errorf("%w: holding %d values, module declares %d", protocol.ErrCountMismatch, p.params.Len(), p.numParams)
	}
	encoded := protocol.Encode(p.params)
	if err := protocol.CheckCapacity(encoded, p.numParams); err != nil {
		return err
	}
	if status := p.abi.SetParams(encoded); protocol.Failed(status) {
		return fmt.Errorf("%w: setParams returned %d", ErrParamsRejected, status)
	}
	return nil
}

// Info returns the module's usage text. Modules that print their own help
// return "".
func (p *Plugin) Info() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	return p.abi.Info(), nil
}

// RunTime reports the duration of the module's most recent run.
func (p *Plugin) RunTime() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	return p.abi.RunTime(), nil
}

func (p *Plugin) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close releases the native handle. Only the first call does anything.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.abi = nil
	lib := p.lib
	p.lib = nil
	if err := lib.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p.name, err)
	}
	p.logger.Debug().Msg("released")
	return nil
}

func cString(buf []byte) string {
	if i := bytes.IndexByte(buf, protocol.Terminator); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}
