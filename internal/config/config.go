package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/plugctl/internal/logging"
)

const (
	DefaultPath      = "plugctl.toml"
	DefaultPrompt    = ">"
	DefaultAdminAddr = "127.0.0.1:7300"
)

// HostConfig is the plugctl host configuration.
type HostConfig struct {
	Prompt     string      `toml:"prompt"`
	PluginDirs []string    `toml:"plugin_dirs"`
	Autoload   []string    `toml:"autoload"`
	Admin      AdminConfig `toml:"admin"`
	Log        LogConfig   `toml:"log"`
}

// AdminConfig controls the HTTP admin API. A non-empty Token is required as a
// bearer token on every mutating route.
type AdminConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	Token       string   `toml:"token"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

func Default() HostConfig {
	return HostConfig{
		Prompt:     DefaultPrompt,
		PluginDirs: []string{},
		Autoload:   []string{},
		Admin: AdminConfig{
			Enabled:     false,
			Addr:        DefaultAdminAddr,
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
	}
}

// Load reads path over Default. Only keys present in the file override the
// defaults.
func Load(path string) (HostConfig, error) {
	cfg := Default()

	var raw HostConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return HostConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return HostConfig{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("prompt") {
		cfg.Prompt = raw.Prompt
	}
	if meta.IsDefined("plugin_dirs") {
		cfg.PluginDirs = normalizeList(raw.PluginDirs)
	}
	if meta.IsDefined("autoload") {
		cfg.Autoload = normalizeList(raw.Autoload)
	}
	if meta.IsDefined("admin", "enabled") {
		cfg.Admin.Enabled = raw.Admin.Enabled
	}
	if meta.IsDefined("admin", "addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.Admin.Addr)
	}
	if meta.IsDefined("admin", "cors_origins") {
		cfg.Admin.CorsOrigins = normalizeList(raw.Admin.CorsOrigins)
	}
	if meta.IsDefined("admin", "token") {
		cfg.Admin.Token = strings.TrimSpace(raw.Admin.Token)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if err := Validate(cfg); err != nil {
		return HostConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load that falls back to Default when path does not exist.
func LoadOptional(path string) (HostConfig, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return HostConfig{}, false, err
	}
	return cfg, true, nil
}

func Validate(cfg HostConfig) error {
	if cfg.Prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	if cfg.Admin.Enabled {
		if strings.TrimSpace(cfg.Admin.Addr) == "" {
			return fmt.Errorf("admin.addr is required when admin is enabled")
		}
		if _, _, err := net.SplitHostPort(cfg.Admin.Addr); err != nil {
			return fmt.Errorf("admin.addr %q: %w", cfg.Admin.Addr, err)
		}
	}
	for i, p := range cfg.Autoload {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("autoload[%d] is empty", i)
		}
	}
	return nil
}

// LoggingConfig converts the [log] table for logging.ConfigureWith.
func (c HostConfig) LoggingConfig() logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		out.Level = lvl
	}
	out.Timestamp = c.Log.Timestamp
	out.NoColor = c.Log.NoColor
	return out
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
