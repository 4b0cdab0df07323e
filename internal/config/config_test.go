package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/plugctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
plugin_dirs = ["./plugins", "  "]
autoload = ["./plugins/prime.so"]

[admin]
enabled = true
addr = "127.0.0.1:9300"

[log]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Prompt != DefaultPrompt {
		t.Fatalf("expected default prompt, got %q", cfg.Prompt)
	}
	if !reflect.DeepEqual(cfg.PluginDirs, []string{"./plugins"}) {
		t.Fatalf("unexpected plugin dirs %v", cfg.PluginDirs)
	}
	if !cfg.Admin.Enabled || cfg.Admin.Addr != "127.0.0.1:9300" {
		t.Fatalf("unexpected admin config %+v", cfg.Admin)
	}
	if !reflect.DeepEqual(cfg.Admin.CorsOrigins, Default().Admin.CorsOrigins) {
		t.Fatalf("expected default cors origins kept, got %v", cfg.Admin.CorsOrigins)
	}
	if !cfg.Log.Timestamp {
		t.Fatalf("expected default timestamp kept")
	}
	if lc := cfg.LoggingConfig(); lc.Level != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", lc.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown key":  "colour = \"blue\"\n",
		"bad level":    "[log]\nlevel = \"loud\"\n",
		"bad addr":     "[admin]\nenabled = true\naddr = \"nope\"\n",
		"empty prompt": "prompt = \"\"\n",
		"malformed":    "plugin_dirs = [\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadOptionalFallsBackToDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil || found {
		t.Fatalf("expected defaults without error, found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestTemplateRoundTripsThroughLoad(t *testing.T) {
	testlog.Start(t)
	tpl, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if !strings.Contains(tpl, "[admin]") || !strings.Contains(tpl, DefaultAdminAddr) {
		t.Fatalf("unexpected template:\n%s", tpl)
	}

	path := filepath.Join(t.TempDir(), "plugctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("template does not load back to defaults: %+v", cfg)
	}
}
