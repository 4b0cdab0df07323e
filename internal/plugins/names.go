package plugins

import (
	"path/filepath"
	"strings"

	"github.com/danmuck/plugctl/internal/native"
)

// ShortName derives the registry key for a module path: the base name with
// the first shared library suffix cut off, along with anything after it.
// "plugins/libprime.so.1" and "prime.so" become "libprime" and "prime".
func ShortName(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	cut := -1
	for _, suffix := range native.Suffixes {
		for from := 0; from < len(base); {
			i := strings.Index(base[from:], suffix)
			if i < 0 {
				break
			}
			at := from + i
			end := at + len(suffix)
			if at > 0 && (end == len(base) || base[end] == '.') {
				if cut < 0 || at < cut {
					cut = at
				}
				break
			}
			from = at + 1
		}
	}
	if cut < 0 {
		return base
	}
	return base[:cut]
}
