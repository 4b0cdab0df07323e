package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/plugctl/internal/admin"
	"github.com/danmuck/plugctl/internal/auth"
	"github.com/danmuck/plugctl/internal/config"
	"github.com/danmuck/plugctl/internal/console"
	"github.com/danmuck/plugctl/internal/logging"
	"github.com/danmuck/plugctl/internal/native"
	"github.com/danmuck/plugctl/internal/plugins"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	admin      bool
	adminAddr  string

	cfg config.HostConfig
}

func newRootCmd(loader native.Loader, in io.Reader, out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "plugctl",
		Short: "Load and drive native plugins",
		Long: `plugctl loads independently compiled shared libraries at runtime and
drives them through a fixed entry-point contract.

Without a subcommand it starts the interactive shell:
  load <plugin_path>, view <name>, set <name> <key> <value>,
  run <name>, time <name>, help <name>, list, ?, exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), opts, loader, in, out)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "host config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log level (trace|debug|info|warn|error|disabled)")
	flags.BoolVar(&opts.admin, "admin", false, "serve the admin HTTP API alongside the shell")
	flags.StringVar(&opts.adminAddr, "admin-addr", "", "admin listen address (overrides config)")

	root.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), opts, loader, in, out)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the admin HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, loader)
		},
	})
	return root
}

// resolve loads the config named by --config and applies flag overrides. A
// missing file at the default path falls back to defaults.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	var (
		cfg config.HostConfig
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, _, err = config.LoadOptional(o.configPath)
	}
	if err != nil {
		return err
	}

	if raw := strings.TrimSpace(o.logLevel); raw != "" {
		if _, ok := logging.ParseLevel(raw); !ok {
			return fmt.Errorf("unknown log level %q", raw)
		}
		cfg.Log.Level = raw
	}
	if o.admin {
		cfg.Admin.Enabled = true
	}
	if addr := strings.TrimSpace(o.adminAddr); addr != "" {
		cfg.Admin.Addr = addr
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logging.ConfigureWith(cfg.LoggingConfig())
	o.cfg = cfg
	return nil
}

// bootstrap builds the registry and loads plugin_dirs then autoload. Load
// failures are logged and skipped.
func bootstrap(cfg config.HostConfig, loader native.Loader) *plugins.Registry {
	reg := plugins.NewRegistry(loader)
	for _, dir := range cfg.PluginDirs {
		loaded, err := reg.LoadDir(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("plugin dir partially loaded")
		}
		log.Info().Str("dir", dir).Strs("plugins", loaded).Msg("plugin dir scanned")
	}
	for _, path := range cfg.Autoload {
		if _, err := reg.Load(path); err != nil && !errors.Is(err, plugins.ErrAlreadyLoaded) {
			log.Warn().Err(err).Str("path", path).Msg("autoload failed")
		}
	}
	return reg
}

func runShell(ctx context.Context, opts *rootOptions, loader native.Loader, in io.Reader, out io.Writer) (err error) {
	reg := bootstrap(opts.cfg, loader)
	defer func() {
		if cerr := reg.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if opts.cfg.Admin.Enabled {
		adminCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		srv := newAdmin(opts.cfg, reg)
		go func() { done <- srv.Serve(adminCtx) }()
		defer func() {
			cancel()
			if serr := <-done; serr != nil {
				log.Error().Err(serr).Msg("admin server")
			}
		}()
	}

	return console.New(reg, in, out, console.WithPrompt(opts.cfg.Prompt)).Run()
}

func runServe(ctx context.Context, opts *rootOptions, loader native.Loader) (err error) {
	reg := bootstrap(opts.cfg, loader)
	defer func() {
		if cerr := reg.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return newAdmin(opts.cfg, reg).Serve(ctx)
}

func newAdmin(cfg config.HostConfig, reg *plugins.Registry) *admin.Server {
	var opts []admin.Option
	if cfg.Admin.Token != "" {
		opts = append(opts, admin.WithValidator(auth.StaticToken{Token: cfg.Admin.Token}))
	}
	return admin.New(cfg.Admin.Addr, reg, cfg.Admin.CorsOrigins, opts...)
}
