package native

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/danmuck/plugctl/internal/testutil/testlog"
)

func TestIsSharedLibrary(t *testing.T) {
	testlog.Start(t)
	cases := map[string]bool{
		"hello.so":       true,
		"libprime.so.1":  true,
		"matrix.dylib":   true,
		"graph.dll":      true,
		"notes.txt":      false,
		"solver":         false,
		"so":             false,
		"config.soy":     false,
		"archive.so.bak": true,
	}
	for name, want := range cases {
		if got := IsSharedLibrary(name); got != want {
			t.Fatalf("IsSharedLibrary(%q)=%v want %v", name, got, want)
		}
	}
}

func TestCheckFuncPtr(t *testing.T) {
	testlog.Start(t)
	var fn func() int32
	if err := CheckFuncPtr(&fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var n int32
	bad := []any{nil, fn, &n, (*func())(nil)}
	for _, v := range bad {
		if err := CheckFuncPtr(v); !errors.Is(err, ErrSymbolShape) {
			t.Fatalf("expected ErrSymbolShape for %T, got %v", v, err)
		}
	}
}

func TestDlLoaderMissingFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "missing.so")
	lib, err := NewDlLoader().Open(path)
	if err == nil {
		_ = lib.Close()
		t.Fatalf("expected open of missing file to fail")
	}
}
