package protocol

const (
	// Separator joins values in a value list (ASCII Unit Separator).
	Separator byte = 0x1F
	// NameSeparator joins names in a name list.
	NameSeparator byte = ','
	// Terminator ends a value list written into a C buffer.
	Terminator byte = 0x00
	// SlotSize is the per-parameter buffer size plugins reserve.
	SlotSize = 256
)

// Status codes returned by plugin entry points.
const (
	StatusOK    = 0
	StatusError = -1
)

// Capacity returns the byte capacity plugins reserve for slots parameters.
func Capacity(slots int) int {
	if slots < 0 {
		return 0
	}
	return slots * SlotSize
}

// Failed reports whether an entry-point status code signals failure.
func Failed(status int) bool {
	return status < 0
}
