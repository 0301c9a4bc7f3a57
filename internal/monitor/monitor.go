// Package monitor wires the plant monitoring service together: storage,
// scheduler, sensor aggregation, analysis, notifications and the front ends.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ohrachov/plantmon/internal/analysis"
	"github.com/ohrachov/plantmon/internal/bot"
	"github.com/ohrachov/plantmon/internal/camera"
	"github.com/ohrachov/plantmon/internal/devices"
	"github.com/ohrachov/plantmon/internal/notify"
	"github.com/ohrachov/plantmon/internal/scheduler"
	"github.com/ohrachov/plantmon/internal/status"
	"github.com/ohrachov/plantmon/internal/store"
	"github.com/ohrachov/plantmon/internal/vision"
	"github.com/ohrachov/plantmon/internal/web"
	"github.com/ohrachov/plantmon/pkg/logger"
	"github.com/ohrachov/plantmon/pkg/metrics"
	"github.com/ohrachov/plantmon/pkg/mq"
	"github.com/ohrachov/plantmon/pkg/sensors"
)

// System is the assembled plant monitoring service.
type System struct {
	logger     *slog.Logger
	config     *Config
	store      *store.Store
	scheduler  *scheduler.Scheduler
	aggregator *status.Aggregator
	notifier   *notify.Notifier
	analyzer   *analysis.Analyzer
	webServer  *web.Server
	bot        *bot.Bot
	mqClient   *mq.Client
	alerter    *Alerter
}

// Config holds the configuration for the System.
type Config struct {
	Logger *slog.Logger

	// Storage configuration
	DBPath string

	// Web configuration
	ListenAddr string

	// Images directory for the camera
	ImagesDir string

	// Loop intervals; zero values fall back to the component defaults.
	RefreshInterval time.Duration
	PollInterval    time.Duration

	// WateringScale is how long one scheduled minute takes on the
	// simulated pump.
	WateringScale time.Duration

	// RabbitMQ configuration; both empty disables event publishing.
	AMQPURL   string
	QueueName string

	// Telegram configuration; empty token disables the bot.
	TelegramToken  string
	TelegramChatID int64

	// Thresholds are the healthy sensor bands used for advice and alerts.
	// The zero value falls back to the defaults.
	Thresholds sensors.Thresholds

	// Metrics enables Prometheus instrumentation on all components.
	Metrics bool
}

// New creates a new System instance.
func New(cfg *Config) (*System, error) {
	if cfg == nil {
		return nil, errors.New("monitor config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.DBPath == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if cfg.ListenAddr == "" {
		return nil, errors.New("listen address cannot be empty")
	}

	if cfg.ImagesDir == "" {
		return nil, errors.New("images directory cannot be empty")
	}

	if (cfg.AMQPURL == "") != (cfg.QueueName == "") {
		return nil, errors.New("amqp URL and queue name must be set together")
	}

	return &System{
		logger: cfg.Logger,
		config: cfg,
	}, nil
}

// Run assembles and starts the service, then blocks until shutdown.
func (s *System) Run(ctx context.Context) error {
	s.logger.Info("starting plant monitor")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := s.build(ctx); err != nil {
		return err
	}

	s.logger.Info("restoring schedules")
	if err := s.scheduler.Reload(ctx); err != nil {
		return fmt.Errorf("failed to restore schedules: %w", err)
	}

	runErr := make(chan error, 8)

	go func() {
		if err := s.aggregator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- fmt.Errorf("status aggregator error: %w", err)
		}
	}()

	go func() {
		if err := s.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- fmt.Errorf("scheduler error: %w", err)
		}
	}()

	go s.alerter.Run(ctx)

	if s.bot != nil {
		go func() {
			if err := s.bot.Run(ctx); err != nil {
				runErr <- fmt.Errorf("telegram bot error: %w", err)
			}
		}()
	}

	go func() {
		if err := s.webServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("web server error: %w", err)
		}
	}()

	s.logger.Info("plant monitor started successfully", "addr", s.config.ListenAddr)

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-runErr:
		s.logger.Error("component failed", "error", err)
		cancel()
		s.Shutdown()
		return err
	}

	return s.Shutdown()
}

// build constructs every component in dependency order.
func (s *System) build(ctx context.Context) error {
	var (
		schedMetrics  *metrics.SchedulerMetrics
		statusMetrics *metrics.StatusMetrics
		webMetrics    *metrics.WebMetrics
		notifyMetrics *metrics.NotifyMetrics
		mqMetrics     *metrics.MQMetrics
	)
	if s.config.Metrics {
		schedMetrics = metrics.NewSchedulerMetrics(metrics.Namespace)
		statusMetrics = metrics.NewStatusMetrics(metrics.Namespace)
		webMetrics = metrics.NewWebMetrics(metrics.Namespace)
		notifyMetrics = metrics.NewNotifyMetrics(metrics.Namespace)
		mqMetrics = metrics.NewMQMetrics(metrics.Namespace)
	}

	st, err := store.Open(&store.Config{
		Logger: logger.ForComponent(s.logger, "store"),
		Path:   s.config.DBPath,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = st

	controller, err := devices.NewController(&devices.ControllerConfig{
		Logger:   logger.ForComponent(s.logger, "devices"),
		Actions:  st,
		Actuator: &devices.SimulatedActuator{PerMinute: s.config.WateringScale},
	})
	if err != nil {
		return fmt.Errorf("failed to create device controller: %w", err)
	}

	sched, err := scheduler.New(&scheduler.Config{
		Logger:       logger.ForComponent(s.logger, "scheduler"),
		Store:        st,
		Controller:   controller,
		Metrics:      schedMetrics,
		PollInterval: s.config.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = sched

	provider, err := sensors.NewSimulated()
	if err != nil {
		return fmt.Errorf("failed to create sensor provider: %w", err)
	}

	aggregator, err := status.New(&status.Config{
		Logger:          logger.ForComponent(s.logger, "status"),
		Provider:        provider,
		History:         st,
		Metrics:         statusMetrics,
		RefreshInterval: s.config.RefreshInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create status aggregator: %w", err)
	}
	s.aggregator = aggregator

	channels := []notify.Channel{
		notify.NewLogChannel(logger.ForComponent(s.logger, "notify")),
	}

	if s.config.AMQPURL != "" {
		mqClient, err := mq.New(&mq.Config{
			Logger:  logger.ForComponent(s.logger, "mq"),
			Metrics: mqMetrics,
			URL:     s.config.AMQPURL,
			Queue:   s.config.QueueName,
		})
		if err != nil {
			return fmt.Errorf("failed to create mq client: %w", err)
		}
		s.mqClient = mqClient
		channels = append(channels, notify.NewAMQPChannel(mqClient))
	}

	cam, err := camera.New(&camera.Config{
		Logger: logger.ForComponent(s.logger, "camera"),
		Dir:    s.config.ImagesDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create camera: %w", err)
	}
	if err := cam.Setup(ctx); err != nil {
		return fmt.Errorf("failed to set up camera: %w", err)
	}

	classifier, err := vision.New(&vision.Config{
		Logger: logger.ForComponent(s.logger, "vision"),
	})
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	if err := classifier.Load(ctx); err != nil {
		return fmt.Errorf("failed to load classifier: %w", err)
	}

	thresholds := s.config.Thresholds
	if thresholds == (sensors.Thresholds{}) {
		thresholds = sensors.DefaultThresholds()
	}

	if s.config.TelegramToken != "" {
		telegramBot, err := bot.New(&bot.Config{
			Logger:     logger.ForComponent(s.logger, "bot"),
			Token:      s.config.TelegramToken,
			Provider:   aggregator,
			Scheduler:  sched,
			Controller: controller,
			Analyzer:   &lateAnalyzer{system: s},
			Logs:       st,
			Thresholds: thresholds,
		})
		if err != nil {
			return fmt.Errorf("failed to create telegram bot: %w", err)
		}
		s.bot = telegramBot

		if s.config.TelegramChatID != 0 {
			channels = append(channels, notify.NewTelegramChannel(telegramBot.Sender(), s.config.TelegramChatID))
		}
	}

	s.notifier = notify.NewNotifier(logger.ForComponent(s.logger, "notify"), notifyMetrics, channels...)

	analyzer, err := analysis.New(&analysis.Config{
		Logger:     logger.ForComponent(s.logger, "analysis"),
		Camera:     cam,
		Classifier: classifier,
		Actions:    st,
		Publisher:  s.notifier,
	})
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	s.analyzer = analyzer

	s.alerter = NewAlerter(&AlerterConfig{
		Logger:     logger.ForComponent(s.logger, "alerts"),
		Provider:   aggregator,
		Publisher:  s.notifier,
		Thresholds: thresholds,
		Interval:   s.config.RefreshInterval,
	})

	webServer, err := web.New(&web.Config{
		Logger:     logger.ForComponent(s.logger, "web"),
		Addr:       s.config.ListenAddr,
		Provider:   aggregator,
		Scheduler:  sched,
		Controller: controller,
		Analyzer:   analyzer,
		Logs:       st,
		Readings:   st,
		Metrics:    webMetrics,
		Thresholds: thresholds,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	s.webServer = webServer

	return nil
}

// Shutdown gracefully stops the components in reverse start order.
func (s *System) Shutdown() error {
	s.logger.Info("shutting down plant monitor")

	var shutdownErr error

	if s.webServer != nil {
		s.logger.Info("stopping web server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.webServer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to stop web server", "error", err)
			shutdownErr = fmt.Errorf("web server shutdown error: %w", err)
		}
		cancel()
	}

	if s.mqClient != nil {
		s.logger.Info("closing mq client")
		if err := s.mqClient.Close(); err != nil {
			s.logger.Error("failed to close mq client", "error", err)
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%w; mq close error: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("mq close error: %w", err)
			}
		}
	}

	if s.store != nil {
		s.logger.Info("closing database")
		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close database", "error", err)
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%w; database close error: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("database close error: %w", err)
			}
		}
	}

	if shutdownErr != nil {
		s.logger.Error("plant monitor shutdown completed with errors", "error", shutdownErr)
		return shutdownErr
	}

	s.logger.Info("plant monitor shutdown completed successfully")
	return nil
}

// lateAnalyzer defers to the analyzer built after the bot.
type lateAnalyzer struct {
	system *System
}

func (l *lateAnalyzer) Analyze(ctx context.Context) (*analysis.Result, error) {
	if l.system.analyzer == nil {
		return nil, errors.New("analyzer not ready")
	}
	return l.system.analyzer.Analyze(ctx)
}
