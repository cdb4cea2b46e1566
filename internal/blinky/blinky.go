// Package blinky runs one of the LED variants on a board: it brings up the board, creates the scheduler and its tasks,
// and serves the scheduler's status & metrics over HTTP.
package blinky

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/clambin/gotools/metrics"
	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/configuration"
	"github.com/clambin/ledrotator/internal/rotation"
	"github.com/clambin/ledrotator/internal/rtos"
	"github.com/clambin/ledrotator/internal/sequence"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Blinky runs the configured LED variant
type Blinky struct {
	http.Handler
	Scheduler  *rtos.Scheduler
	HTTPServer *metrics.Server
	board      board.Board
	ring       *rotation.Ring
	sequence   *sequence.Sequence
	cfg        configuration.Configuration
	logger     *log.Entry
}

// New clears the board's LEDs and creates the tasks for the configured mode. If r is not nil, the scheduler's
// and the variant's metrics are registered with it. If r is also a prometheus.Gatherer, Handler serves its metrics
// on /metrics.
//
// Unless the configured port is negative, New also creates the HTTP server that Run starts. Its /metrics endpoint
// serves the default prometheus registry. If the port is zero, a free port is chosen: see HTTPServer.Port.
func New(cfg configuration.Configuration, b board.Board, r prometheus.Registerer) (*Blinky, error) {
	if err := b.ClearAll(); err != nil {
		return nil, fmt.Errorf("clear leds: %w", err)
	}

	logger := log.WithField("component", "blinky")
	s := Blinky{
		Scheduler: rtos.New(
			rtos.WithTick(cfg.Scheduler.Tick),
			rtos.WithMaxTasks(cfg.Scheduler.MaxTasks),
			rtos.WithLogger(log.WithField("component", "scheduler")),
		),
		board:  b,
		cfg:    cfg,
		logger: logger,
	}

	var (
		variant prometheus.Collector
		err     error
	)
	switch cfg.Mode {
	case configuration.ModeRotation:
		variant, err = s.registerRotation()
	case configuration.ModeSequence:
		s.sequence, err = sequence.Register(s.Scheduler, b, cfg.Sequence.DelayTicks, log.WithField("component", "sequence"))
		variant = s.sequence
	default:
		err = fmt.Errorf("invalid mode: %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	m := newHTTPMetrics()
	router := mux.NewRouter()
	router.Path("/health").Methods(http.MethodGet).HandlerFunc(s.handleHealth)
	if r != nil {
		r.MustRegister(m, s.Scheduler, variant)
		if g, ok := r.(prometheus.Gatherer); ok {
			router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
		}
	}
	s.Handler = m.ServerMiddleware(router)
	if cfg.Port >= 0 {
		s.HTTPServer = metrics.NewServerWithHandlers(cfg.Port, []metrics.Handler{
			{Path: "/health", Handler: s.Handler},
		})
	}

	logger.WithFields(log.Fields{"mode": cfg.Mode, "board": cfg.Board.Type}).Info("blinky created")
	return &s, nil
}

func (s *Blinky) registerRotation() (*rotation.Ring, error) {
	var err error
	logger := log.WithField("component", "rotation")
	switch s.cfg.Rotation.Handoff {
	case configuration.HandoffPriority:
		s.ring, err = rotation.Register(s.Scheduler, s.board, s.cfg.Rotation.Hold, logger)
	case configuration.HandoffToken:
		s.ring, err = rotation.RegisterToken(s.Scheduler, s.board, s.cfg.Rotation.Hold, logger)
	default:
		err = fmt.Errorf("invalid handoff: %q", s.cfg.Rotation.Handoff)
	}
	return s.ring, err
}

// Run starts the scheduler and, if configured, the HTTP server. It returns when ctx is cancelled, or when a task fails.
// A failed task leaves the LEDs in their last state.
func (s *Blinky) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Scheduler.Start(ctx)
	})
	if s.HTTPServer != nil {
		g.Go(func() error {
			s.logger.WithField("port", s.HTTPServer.Port).Debug("starting http server")
			if err := s.HTTPServer.Run(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			err := s.HTTPServer.Shutdown(shutdownTimeout)
			s.logger.WithError(err).Debug("http server stopped")
			return err
		})
	}
	return g.Wait()
}
