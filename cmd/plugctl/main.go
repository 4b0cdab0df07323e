package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/plugctl/internal/native"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(native.NewDlLoader(), os.Stdin, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("plugctl failed")
		stop()
		os.Exit(1)
	}
}
