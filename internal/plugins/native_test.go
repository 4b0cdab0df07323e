//go:build darwin || linux || freebsd

package plugins

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/plugctl/internal/native"
	"github.com/danmuck/plugctl/internal/params"
	"github.com/danmuck/plugctl/internal/protocol"
	"github.com/danmuck/plugctl/internal/testutil/cplugin"
	"github.com/danmuck/plugctl/internal/testutil/testlog"
)

func TestCompiledPluginRoundTrip(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry(native.NewDlLoader())
	defer reg.Close()

	p, err := reg.Load(cplugin.Build(t, "prime"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Generation() != GenerationFunctions {
		t.Fatalf("expected functions generation, got %s", p.Generation())
	}
	if info, err := p.Info(); err != nil || info != "" {
		t.Fatalf("expected empty info, got %q err=%v", info, err)
	}

	if err := p.SetParam("limit", "50"); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	if err := p.SetParam("outputFile", ""); !errors.Is(err, protocol.ErrInvalidValue) {
		t.Fatalf("expected empty value rejected, got %v", err)
	}
	res, err := p.Run()
	if err != nil || res.PushErr != nil || res.Failed() {
		t.Fatalf("run: res=%+v err=%v", res, err)
	}
	if err := p.RefreshParameters(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	want := []params.Entry{{Key: "outputFile", Value: "primes.txt"}, {Key: "limit", Value: "50"}}
	if got := p.Params(); !reflect.DeepEqual(got, want) {
		t.Fatalf("params mismatch: got=%v want=%v", got, want)
	}
}

func TestCompiledStaticPluginLoads(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry(native.NewDlLoader())
	defer reg.Close()

	p, err := reg.Load(cplugin.Build(t, "legacy", cplugin.Static))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Generation() != GenerationStatic || p.NumParams() != 2 {
		t.Fatalf("expected static generation with 2 params, got %s/%d", p.Generation(), p.NumParams())
	}
}

func TestCompiledPluginWithoutRunIsRejected(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry(native.NewDlLoader())
	defer reg.Close()

	_, err := reg.Load(cplugin.Build(t, "norun", cplugin.NoRun))
	if !errors.Is(err, ErrSymbolMissing) {
		t.Fatalf("expected ErrSymbolMissing, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected registry unchanged, got %v", reg.Names())
	}
}
