package protocol

import (
	"fmt"
	"strings"

	"github.com/danmuck/plugctl/internal/params"
)

// Decode zips a comma-separated name list with a Separator-joined value list.
// Empty tokens are dropped before zipping. When the counts differ, the result
// holds the first min(names, values) pairs and the returned error wraps
// ErrCountMismatch; callers treat it as a warning and keep the result. A
// repeated name keeps its last value and is reported the same way.
func Decode(nameList, valueList string) (*params.Map, error) {
	names := SplitNames(nameList)
	values := splitNonEmpty(valueList, Separator)

	n := min(len(names), len(values))
	out := params.New()
	for i := 0; i < n; i++ {
		out.Insert(names[i], values[i])
	}

	if len(names) != len(values) {
		return out, fmt.Errorf("%w: %d names, %d values", ErrCountMismatch, len(names), len(values))
	}
	if out.Len() != len(names) {
		return out, fmt.Errorf("%w: %d names, %d distinct", ErrCountMismatch, len(names), out.Len())
	}
	return out, nil
}

// SplitNames splits a name list, dropping empty and blank tokens.
func SplitNames(nameList string) []string {
	raw := splitNonEmpty(nameList, NameSeparator)
	out := raw[:0]
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// SplitValues is the receiving side of a value push: it splits buf into
// exactly slots values, rejecting buffers that would not fit the plugin's
// fixed slots.
func SplitValues(buf string, slots int) ([]string, error) {
	if buf == "" && slots == 0 {
		return nil, nil
	}
	if err := CheckCapacity(buf, slots); err != nil {
		return nil, err
	}
	values := strings.Split(buf, string(Separator))
	if len(values) != slots {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrCountMismatch, len(values), slots)
	}
	for i, v := range values {
		if len(v) >= SlotSize {
			return nil, fmt.Errorf("%w: value %d is %d bytes", ErrCapacityExceeded, i, len(v))
		}
	}
	return values, nil
}

func splitNonEmpty(s string, sep byte) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, string(sep))
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
