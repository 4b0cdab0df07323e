package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/plugctl/internal/testutil/fakelib"
	"github.com/danmuck/plugctl/internal/testutil/testlog"
)

func prime() *fakelib.Module {
	return fakelib.NewModule(fakelib.GenFunctions,
		[]string{"outputFile", "limit"},
		[]string{"primes.txt", "100"},
	)
}

func TestShellAutoloadsAndReleasesOnExit(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "plugins")
	if err := os.Mkdir(pluginDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "hello.so"), nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfgPath := filepath.Join(dir, "plugctl.toml")
	cfg := "prompt = \"plugctl> \"\nplugin_dirs = [\"" + pluginDir + "\"]\nautoload = [\"extra/prime.so\", \"missing.so\"]\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := fakelib.NewLoader()
	loader.Add(filepath.Join(pluginDir, "hello.so"), fakelib.NewModule(fakelib.GenFunctions, nil, nil))
	m := loader.Add("extra/prime.so", prime())

	var out bytes.Buffer
	root := newRootCmd(loader, strings.NewReader("list\nset prime limit 7\nrun prime\nexit\n"), &out)
	root.SetArgs([]string{"--config", cfgPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Loaded plugins:\n\t - hello\n\t - prime\n") {
		t.Fatalf("expected dir plugin then autoload in order:\n%s", text)
	}
	if !strings.Contains(text, "plugctl> ") {
		t.Fatalf("expected configured prompt:\n%s", text)
	}
	if observed := m.Observed(); len(observed) != 1 || observed[0][1] != "7" {
		t.Fatalf("module observed %v", observed)
	}
	if loader.Live() != 0 {
		t.Fatalf("expected all handles released on exit, live=%d", loader.Live())
	}
}

func TestExplicitMissingConfigFails(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	root := newRootCmd(fakelib.NewLoader(), strings.NewReader("exit\n"), &out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.toml")})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestRejectsUnknownLogLevel(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	root := newRootCmd(fakelib.NewLoader(), strings.NewReader("exit\n"), &out)
	root.SetArgs([]string{"shell", "--log-level", "loud"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "loud") {
		t.Fatalf("expected unknown level error, got %v", err)
	}
}
