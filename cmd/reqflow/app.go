package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/config"
	"github.com/c360studio/reqflow/integrations"
	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/metrics"
	"github.com/c360studio/reqflow/notify"
	httpserver "github.com/c360studio/reqflow/server"
	"github.com/c360studio/reqflow/storage"
	"github.com/c360studio/reqflow/workflow"
)

// App owns the process-wide infrastructure: NATS, storage, the pipeline
// engine, and the HTTP server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	natsConn       *nats.Conn
	embeddedServer *server.Server
	js             jetstream.JetStream

	store      storage.Store
	engine     *workflow.Engine
	metrics    *metrics.Metrics
	httpServer *httpserver.Server
}

// NewApp wires all components from configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.startNATS(ctx); err != nil {
		return nil, err
	}
	if err := a.initComponents(ctx); err != nil {
		a.Shutdown(5 * time.Second)
		return nil, err
	}
	return a, nil
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Info("connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		a.logger.Info("starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js
	return nil
}

func (a *App) initComponents(ctx context.Context) error {
	store, err := storage.NewKVStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.store = store

	a.metrics = metrics.New()

	registry := a.cfg.BuildRegistry()
	client := llm.NewClient(registry,
		llm.WithLogger(a.logger),
		llm.WithObserver(a.metrics.ObserveLLMCall))

	docs := integrations.NewDocStore(a.cfg.Integrations.Docs, a.logger)
	tracker := integrations.NewTracker(a.cfg.Integrations.Tracker, a.logger)
	wiki := integrations.NewWiki(a.cfg.Integrations.Wiki, a.logger)

	validator := agent.NewValidationAgent(client, a.logger)
	formatter := agent.NewFormattingAgent(client, a.logger)
	drafter := agent.NewDocumentAgent(client, a.logger)
	designer := agent.NewDesignAgent(client, a.logger)
	if temp := a.cfg.Workflow.Temperature; temp > 0 {
		validator.SetTemperature(temp)
		formatter.SetTemperature(temp)
		drafter.SetTemperature(temp)
		designer.SetTemperature(temp)
	}

	engine, err := workflow.New(workflow.Options{
		Validator: validator,
		Formatter: formatter,
		Drafter:   drafter,
		Designer:  designer,
		Docs:      docs,
		Tracker:   tracker,
		Wiki:      wiki,
		Sink: workflow.MultiSink{
			storage.NewStepSink(a.store, a.logger),
			metrics.NewStageSink(a.metrics),
		},
		StageTimeout: a.cfg.Workflow.StageTimeout,
		Logger:       a.logger,
	})
	if err != nil {
		return fmt.Errorf("build workflow engine: %w", err)
	}
	a.engine = engine

	httpSrv, err := httpserver.New(a.cfg.Server, httpserver.Deps{
		Store:    a.store,
		Runner:   engine,
		Notifier: notify.New(a.natsConn, a.logger),
		Metrics:  a.metrics,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}
	a.httpServer = httpSrv
	return nil
}

// Run serves HTTP until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	return a.httpServer.Start(ctx)
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(timeout time.Duration) {
	a.logger.Info("shutting down")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if a.natsConn != nil {
			_ = a.natsConn.Drain()
			a.natsConn.Close()
		}
		if a.embeddedServer != nil {
			a.embeddedServer.Shutdown()
			a.embeddedServer.WaitForShutdown()
		}
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		a.logger.Warn("shutdown timed out")
	}
}
