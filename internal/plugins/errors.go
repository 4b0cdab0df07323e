package plugins

import "errors"

var (
	ErrLoadFailure      = errors.New("plugins: load failure")
	ErrSymbolMissing    = errors.New("plugins: required symbol missing")
	ErrAlreadyLoaded    = errors.New("plugins: already loaded")
	ErrNotFound         = errors.New("plugins: not found")
	ErrUnknownParameter = errors.New("plugins: unknown parameter")
	ErrParamsRejected   = errors.New("plugins: module rejected parameters")
	ErrClosed           = errors.New("plugins: binding closed")
)
