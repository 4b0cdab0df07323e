package protocol

import "errors"

var (
	ErrCountMismatch    = errors.New("protocol: parameter count mismatch")
	ErrCapacityExceeded = errors.New("protocol: buffer capacity exceeded")
	ErrInvalidValue     = errors.New("protocol: invalid parameter value")
)
