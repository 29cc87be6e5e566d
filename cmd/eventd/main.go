// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hibouclub/eventengine/internal/admin"
	"github.com/hibouclub/eventengine/internal/config"
	"github.com/hibouclub/eventengine/internal/content"
	"github.com/hibouclub/eventengine/internal/event/lifecycle"
	"github.com/hibouclub/eventengine/internal/event/mission"
	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/resolver"
	"github.com/hibouclub/eventengine/internal/event/store"
	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/platform/noop"
	"github.com/hibouclub/eventengine/internal/telemetry"
	"github.com/hibouclub/eventengine/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eventd: %v\n", err)
		os.Exit(1)
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "eventd",
	})
	logger := xglog.WithComponent("daemon")
	logger.Info().Str("version", version.Version).Str("backend", cfg.Store.Backend).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	logger := xglog.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    "eventd",
		ServiceVersion: version.Version,
		Endpoint:       cfg.OTLPEndpoint,
		SamplingRate:   1.0,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	st, err := store.Open(cfg.Store.Backend, store.Options{
		Path:      cfg.Store.Path,
		RedisAddr: cfg.Store.RedisAddr,
		RedisDB:   cfg.Store.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("store close failed")
		}
	}()

	// Challenge corpus: external file with hot reload when configured,
	// embedded dataset otherwise.
	var dataset *content.Dataset
	if cfg.DatasetPath != "" {
		dataset, err = content.NewDatasetFromFile(cfg.DatasetPath)
	} else {
		dataset, err = content.NewDataset()
	}
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	defer func() {
		if err := dataset.Close(); err != nil {
			logger.Warn().Err(err).Msg("dataset close failed")
		}
	}()
	gen := &content.Fallback{Static: dataset}

	// Platform integrations are noop stand-ins until a bot gateway is
	// attached; everything they would do is logged.
	channels := noop.NewProvisioner()
	notify := noop.NewNotifier()
	ledger := noop.NewLedger()

	ctrl := lifecycle.NewController(st, channels, notify)
	ctrl.GraceDelay = cfg.GraceDelay

	res := resolver.NewResolver(st, ledger, notify, ctrl)
	res.CompleteDelay = cfg.CompleteDelay
	ctrl.Finalizer = res

	tracker := mission.NewTracker(st, notify, ctrl)
	tracker.AIStreakWindow = cfg.Impostor.AIStreakWindow
	tracker.AIStreakThreshold = cfg.Impostor.AIStreakThreshold
	tracker.CompleteDelay = cfg.CompleteDelay

	// Expiry timers died with the previous process; re-arm them before
	// anything else runs. The initial sweep then catches events that
	// expired while the daemon was down.
	if err := ctrl.RearmTimers(ctx); err != nil {
		return fmt.Errorf("rearm timers: %w", err)
	}

	l := &launcher{cfg: cfg, gen: gen}
	schedule := make([]lifecycle.PlannedStart, 0, len(cfg.Schedule))
	for _, entry := range cfg.Schedule {
		schedule = append(schedule, lifecycle.PlannedStart{
			Kind: model.EventKind(entry.Kind),
			At:   entry.At,
		})
	}
	planner := &lifecycle.Planner{
		Schedule: schedule,
		Launch: func(ctx context.Context, kind model.EventKind) error {
			req, err := l.buildStartRequest(ctx, kind)
			if err != nil {
				return err
			}
			_, err = ctrl.Start(ctx, req)
			return err
		},
	}

	sweeper := &lifecycle.Sweeper{
		Ctrl: ctrl,
		Conf: lifecycle.SweeperConfig{Interval: cfg.SweepInterval},
	}

	adminSrv := admin.New(st, ctrl, cfg.Admin.Token)
	prefs := resolver.StorePrefs{Store: st}
	adminSrv.Impostor = func(ctx context.Context, userID, username string) error {
		if prefs.IsOptedOut(ctx, userID, resolver.FeatureImpostor) {
			return fmt.Errorf("user %s has opted out of impostor events", userID)
		}
		_, err := ctrl.Start(ctx, buildImpostorRequest(cfg, userID, username))
		return err
	}
	box := resolver.NewMysteryBox(ledger, notify, prefs)
	box.MinXP = cfg.MysteryBox.MinXP
	box.MaxXP = cfg.MysteryBox.MaxXP
	box.TrollChance = cfg.MysteryBox.TrollChance
	adminSrv.Box = box
	adminSrv.Signal = tracker.Record
	adminSrv.Res = res
	httpSrv := &http.Server{
		Addr:              cfg.Admin.Listen,
		Handler:           adminSrv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		planner.Run(gctx)
		return nil
	})
	if cfg.Admin.Listen != "" {
		g.Go(func() error {
			logger.Info().Str("listen", cfg.Admin.Listen).Msg("admin API listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
