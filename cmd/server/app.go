package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/internal/alert"
	"github.com/RoGogDBD/honeypot-dashboard/internal/config"
	"github.com/RoGogDBD/honeypot-dashboard/internal/config/db"
	"github.com/RoGogDBD/honeypot-dashboard/internal/geo"
	"github.com/RoGogDBD/honeypot-dashboard/internal/grpcserver"
	"github.com/RoGogDBD/honeypot-dashboard/internal/handler"
	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
	"github.com/RoGogDBD/honeypot-dashboard/internal/repository"
	"github.com/RoGogDBD/honeypot-dashboard/internal/sensor"
	"github.com/RoGogDBD/honeypot-dashboard/internal/service"
	"github.com/RoGogDBD/honeypot-dashboard/internal/simulator"
	"github.com/RoGogDBD/honeypot-dashboard/internal/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	healthInterval  = 15 * time.Second
)

// app связывает компоненты сервера.
type app struct {
	cfg    *config.ServerConfig
	logger *zap.Logger

	store      repository.EventStore
	closeStore func()
	hub        *websocket.Hub
	generator  *simulator.Generator
	monitor    *alert.Monitor
	dispatcher *alert.Dispatcher
	router     http.Handler
	grpc       *grpcserver.Server
}

func newApp(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, closeStore: func() {}}

	if cfg.DatabaseDSN != "" {
		pool, err := db.InitDB(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, err
		}
		pg := repository.NewPostgres(pool)
		a.store, a.closeStore = pg, pg.Close
	} else {
		logger.Info("no DSN provided, using in-memory storage")
		a.store = repository.NewMemStorage()
	}

	categories := models.ActiveCategories(cfg.BruteForce)
	settings := repository.NewSettingsStore()

	a.hub = websocket.NewHub(logger)
	notifier := repository.NewAttackNotifier(logger)
	notifier.Attach(a.hub)
	if cfg.JournalFile != "" {
		journal, err := repository.NewJournalObserver(cfg.JournalFile)
		if err != nil {
			a.close()
			return nil, err
		}
		notifier.Attach(journal)
	}
	if cfg.WebhookURL != "" {
		notifier.Attach(repository.NewWebhookObserver(cfg.WebhookURL))
	}

	a.generator = simulator.NewGenerator(a.store, notifier, categories, nil, logger)

	var mailer alert.Mailer = alert.NewLogMailer(logger)
	if cfg.SMTP.Host != "" {
		mailer = alert.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}
	a.dispatcher = alert.NewDispatcher(mailer, alert.DefaultQueueSize, logger)
	a.monitor = alert.NewMonitor(a.store, settings, a.dispatcher, logger,
		alert.WithCooldown(cfg.AlertCooldown),
		alert.WithStampOnEnqueue(cfg.StampOnEnqueue),
	)

	h := handler.NewHandler(a.store, settings, categories, logger)
	h.SetGeo(geo.NewCache(geo.NewIPAPIClient(cfg.GeoAPIURL), logger))
	h.SetViewers(a.hub)
	h.SetSensor(sensor.Host{})
	h.SetPublisher(notifier)
	a.router = service.NewRouter(h, websocket.ServeWS(a.hub, logger), logger)

	if cfg.GRPCAddress != "" {
		subnet, err := grpcserver.ParseSubnet(cfg.TrustedSubnet)
		if err != nil {
			a.close()
			return nil, err
		}
		a.grpc = grpcserver.NewServer(a.store, subnet, logger)
	}
	return a, nil
}

// run запускает все компоненты и ждёт их остановки после отмены ctx.
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Address.String(),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return ignoreCanceled(a.hub.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(a.dispatcher.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(a.generator.Run(ctx, a.cfg.GenerateInterval)) })
	g.Go(func() error { return ignoreCanceled(a.monitor.Run(ctx, a.cfg.MonitorInterval)) })

	if a.grpc != nil {
		g.Go(func() error { return a.grpc.Serve(ctx, a.cfg.GRPCAddress) })
		g.Go(func() error { return ignoreCanceled(a.grpc.Watch(ctx, healthInterval)) })
	}

	err := g.Wait()
	a.logger.Info("server stopped")
	return err
}

func (a *app) close() {
	a.closeStore()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
