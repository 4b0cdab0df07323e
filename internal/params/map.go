package params

// Entry is one named parameter value.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Map is a string-to-string map that remembers insertion order.
// Lookups are linear; parameter sets are small.
type Map struct {
	entries []Entry
}

// New returns an empty map.
func New() *Map {
	return &Map{}
}

// FromEntries builds a map from entries in order. A repeated key keeps its
// first position and takes the later value.
func FromEntries(entries []Entry) *Map {
	m := &Map{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		m.Insert(e.Key, e.Value)
	}
	return m
}

// Insert appends key with value, or overwrites the value in place when key
// already exists. It reports whether the key was new.
func (m *Map) Insert(key, value string) bool {
	if i := m.Index(key); i >= 0 {
		m.entries[i].Value = value
		return false
	}
	m.entries = append(m.entries, Entry{Key: key, Value: value})
	return true
}

// Update overwrites the value of an existing key. It never adds keys.
func (m *Map) Update(key, value string) bool {
	i := m.Index(key)
	if i < 0 {
		return false
	}
	m.entries[i].Value = value
	return true
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (string, bool) {
	i := m.Index(key)
	if i < 0 {
		return "", false
	}
	return m.entries[i].Value, true
}

func (m *Map) Has(key string) bool {
	return m.Index(key) >= 0
}

// Index returns the position of key, or -1.
func (m *Map) Index(key string) int {
	for i := range m.entries {
		if m.entries[i].Key == key {
			return i
		}
	}
	return -1
}

// At returns the entry at position i.
func (m *Map) At(i int) (Entry, bool) {
	if i < 0 || i >= len(m.entries) {
		return Entry{}, false
	}
	return m.entries[i], true
}

func (m *Map) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Map) Keys() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

func (m *Map) Values() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Value
	}
	return out
}

func (m *Map) Clear() {
	m.entries = m.entries[:0]
}

// Replace swaps the whole contents for other's. Keys absent from other are
// dropped.
func (m *Map) Replace(other *Map) {
	if other == nil {
		m.entries = nil
		return
	}
	m.entries = other.Entries()
}

// Clone returns an independent copy.
func (m *Map) Clone() *Map {
	return &Map{entries: m.Entries()}
}
