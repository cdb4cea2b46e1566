package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/clambin/ledrotator/internal/blinky"
	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/configuration"
	"github.com/clambin/ledrotator/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := configuration.GetConfigFromArgs(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("invalid arguments")
	}
	if err = run(cfg); err != nil {
		log.WithError(err).Error("ledrotator failed")
		os.Exit(1)
	}
	log.Info("ledrotator exiting")
}

func run(cfg configuration.Configuration) error {
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("version", version.BuildVersion).Info("ledrotator starting")

	b, err := board.New(cfg.Board)
	if err != nil {
		return fmt.Errorf("board %s: %w", cfg.Board.Type, err)
	}
	if c, ok := b.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	s, err := blinky.New(cfg, board.Logged(b, log.WithField("component", "board")), prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	ctx, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()

	return s.Run(ctx)
}
