package protocol

import (
	"fmt"
	"strings"

	"github.com/danmuck/plugctl/internal/params"
)

// Encode joins the values of m in order, separated by Separator. The C string
// terminator that replaces the trailing separator is added at the ABI boundary,
// so an empty map encodes to "".
func Encode(m *params.Map) string {
	if m == nil || m.Len() == 0 {
		return ""
	}
	return JoinValues(m.Values())
}

// JoinValues joins raw values with Separator.
func JoinValues(values []string) string {
	return strings.Join(values, string(Separator))
}

// EncodeInto writes the terminated encoding of m into dst and returns the
// number of bytes before the terminator.
func EncodeInto(dst []byte, m *params.Map) (int, error) {
	encoded := Encode(m)
	if len(encoded)+1 > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrCapacityExceeded, len(encoded)+1, len(dst))
	}
	n := copy(dst, encoded)
	dst[n] = Terminator
	return n, nil
}

// CheckCapacity reports whether a terminated encoded value list fits in the
// buffer a plugin with slots parameters reserves.
func CheckCapacity(encoded string, slots int) error {
	if encoded == "" {
		return nil
	}
	need := len(encoded) + 1
	if have := Capacity(slots); need > have {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrCapacityExceeded, need, have)
	}
	return nil
}

// ValidateValue rejects values that cannot cross the wire unescaped. Empty
// values are rejected too: both sides drop empty tokens when splitting, which
// would shift every later value one position left.
func ValidateValue(v string) error {
	if v == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidValue)
	}
	if strings.IndexByte(v, Separator) >= 0 {
		return fmt.Errorf("%w: contains separator byte 0x%02x", ErrInvalidValue, Separator)
	}
	if strings.IndexByte(v, Terminator) >= 0 {
		return fmt.Errorf("%w: contains NUL byte", ErrInvalidValue)
	}
	if len(v) >= SlotSize {
		return fmt.Errorf("%w: %d bytes exceeds slot size %d", ErrCapacityExceeded, len(v), SlotSize-1)
	}
	return nil
}
