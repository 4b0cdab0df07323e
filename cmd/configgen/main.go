package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/plugctl/internal/config"
	"github.com/danmuck/plugctl/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	output := flag.String("output", config.DefaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", config.DefaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	printOnly := flag.Bool("print", false, "print the template to stdout instead of writing it")
	flag.Parse()

	logging.ConfigureRuntime()

	switch {
	case *validate:
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal().Err(err).Msg("validation failed")
		}
		log.Info().
			Str("path", *input).
			Int("plugin_dirs", len(cfg.PluginDirs)).
			Int("autoload", len(cfg.Autoload)).
			Bool("admin", cfg.Admin.Enabled).
			Msg("config valid")
	case *printOnly:
		tpl, err := config.Template()
		if err != nil {
			log.Fatal().Err(err).Msg("render template")
		}
		fmt.Fprint(os.Stdout, tpl)
	default:
		if err := config.WriteTemplate(*output, *force); err != nil {
			log.Fatal().Err(err).Msg("write template")
		}
		log.Info().Str("path", *output).Msg("wrote config template")
	}
}
