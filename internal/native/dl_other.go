//go:build !(darwin || linux || freebsd)

package native

import "fmt"

// DlLoader is unavailable on this platform; Open always fails.
type DlLoader struct {
	Mode int
}

func NewDlLoader() DlLoader {
	return DlLoader{}
}

func (l DlLoader) Open(path string) (Library, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}
