package plugins

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/plugctl/internal/native"
	"github.com/danmuck/plugctl/internal/protocol"
)

// Entry point symbol names.
const (
	SymRun       = "run"
	SymSetParams = "setParams"
	SymGetParams = "getParams"
	SymRunTime   = "getRunTime"

	SymNumArgs    = "getNumArgs"
	SymParamInfo  = "getParamInfo"
	SymPluginInfo = "displayPluginInfo"

	SymNumArgsValue   = "NUM_ARGS"
	SymQueryParamInfo = "queryParamInfo"
)

// Generation identifies which entry point set a module exports.
type Generation int

const (
	GenerationUnknown Generation = iota
	// GenerationStatic exports NUM_ARGS and queryParamInfo. Kept for older
	// modules; it has no info entry point.
	GenerationStatic
	// GenerationFunctions exports getNumArgs, getParamInfo and
	// displayPluginInfo. This is the current contract.
	GenerationFunctions
)

func (g Generation) String() string {
	switch g {
	case GenerationStatic:
		return "static"
	case GenerationFunctions:
		return "functions"
	default:
		return "unknown"
	}
}

// ABI is the typed call surface of one bound module.
type ABI interface {
	Generation() Generation
	Run() int
	SetParams(values string) int
	GetParams(buf []byte) int
	ParamNames() string
	Info() string
	NumParams() int
	RunTime() time.Duration
}

type coreEntryPoints struct {
	run       func() int32
	setParams func(string) int32
	getParams func(*byte, int32) int32
	runTime   func() int64
}

func (c *coreEntryPoints) Run() int {
	return int(c.run())
}

func (c *coreEntryPoints) SetParams(values string) int {
	return int(c.setParams(values))
}

func (c *coreEntryPoints) GetParams(buf []byte) int {
	if len(buf) == 0 {
		return protocol.StatusError
	}
	return int(c.getParams(&buf[0], int32(len(buf))))
}

// RunTime converts the module's millisecond clock reading.
func (c *coreEntryPoints) RunTime() time.Duration {
	return time.Duration(c.runTime()) * time.Millisecond
}

type functionsABI struct {
	coreEntryPoints
	numArgs    func() int32
	paramInfo  func() string
	pluginInfo func() string
}

func (f *functionsABI) Generation() Generation { return GenerationFunctions }
func (f *functionsABI) NumParams() int         { return int(f.numArgs()) }
func (f *functionsABI) ParamNames() string     { return f.paramInfo() }
func (f *functionsABI) Info() string           { return f.pluginInfo() }

type staticABI struct {
	coreEntryPoints
	numArgs        int
	queryParamInfo func() string
}

func (s *staticABI) Generation() Generation { return GenerationStatic }
func (s *staticABI) NumParams() int         { return s.numArgs }
func (s *staticABI) ParamNames() string     { return s.queryParamInfo() }
func (s *staticABI) Info() string           { return "" }

// resolveABI binds every required entry point of lib. The common entry points
// are resolved first, then the functions generation is tried through
// getNumArgs with the static generation as fallback. The first missing or
// mismatched symbol aborts resolution.
func resolveABI(lib native.Library) (ABI, error) {
	var core coreEntryPoints
	required := []struct {
		name string
		fptr any
	}{
		{SymSetParams, &core.setParams},
		{SymGetParams, &core.getParams},
		{SymRun, &core.run},
		{SymRunTime, &core.runTime},
	}
	for _, sym := range required {
		if err := lib.Bind(sym.name, sym.fptr); err != nil {
			return nil, symbolError(sym.name, err)
		}
	}

	fn := &functionsABI{coreEntryPoints: core}
	err := lib.Bind(SymNumArgs, &fn.numArgs)
	switch {
	case err == nil:
		if err := lib.Bind(SymParamInfo, &fn.paramInfo); err != nil {
			return nil, symbolError(SymParamInfo, err)
		}
		if err := lib.Bind(SymPluginInfo, &fn.pluginInfo); err != nil {
			return nil, symbolError(SymPluginInfo, err)
		}
		return fn, nil
	case errors.Is(err, native.ErrSymbolNotFound):
	default:
		return nil, symbolError(SymNumArgs, err)
	}

	st := &staticABI{coreEntryPoints: core}
	if err := lib.Bind(SymQueryParamInfo, &st.queryParamInfo); err != nil {
		return nil, symbolError(SymQueryParamInfo, err)
	}
	n, err := lib.Int(SymNumArgsValue)
	if err != nil {
		return nil, symbolError(SymNumArgsValue, err)
	}
	st.numArgs = n
	return st, nil
}

func symbolError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSymbolMissing, name, err)
}
