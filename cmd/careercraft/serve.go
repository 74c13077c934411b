package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careercraft/internal/api"
	"careercraft/internal/config"
	"careercraft/internal/database"
	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/metrics"
	"careercraft/internal/notify"
	"careercraft/internal/repository"
	"careercraft/internal/service"
	"careercraft/internal/storage"
	"careercraft/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, logger, closer, err := loadConfigAndLogger("api-main")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	go database.NewBackupService(db, cfg.Backup, logger).Start(ctx)

	gateway, err := initStorage(cfg, logger)
	if err != nil {
		return err
	}

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	eventBus, relay, amqpPublisher := initEvents(relayCtx, cfg, redisClient, logger)
	if amqpPublisher != nil {
		defer amqpPublisher.Close()
	}

	notifier, err := initNotifier(cfg, logger)
	if err != nil {
		return err
	}

	svc := api.Services{
		Consultations: service.NewConsultationService(db, eventBus, notifier, cfg.App.Location(), logger),
		Registrations: service.NewRegistrationService(db, gateway, eventBus, notifier, logger),
		Media:         service.NewMediaService(db, db, gateway, storage.NewImageNormalizer(cfg.Storage.Images), eventBus, logger),
		Content:       service.NewContentService(db, logger),
		Throttle:      initThrottle(redisClient, logger),
	}
	httpServer := api.NewHTTPServer(cfg, svc, logger)

	startMetrics(ctx, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}

	// дожидаемся отправки уведомлений по уже принятым заявкам
	drained := make(chan struct{})
	go func() {
		notifier.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("notifications still in flight at shutdown")
	}

	if relay != nil {
		stopRelay()
		relay.Wait()
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func initStorage(cfg *config.Config, logger *zerolog.Logger) (*storage.Gateway, error) {
	remote := cfg.Storage.Remote
	var objects domain.ObjectStorage
	switch {
	case remote.HasCredentials():
		// клиент нужен и при выключенном remote: старые файлы удаляются и проксируются через него
		client, err := storage.NewOSSClient(remote, logger)
		if err != nil {
			if remote.Enabled {
				logger.Error().Err(err).Str("bucket", remote.Bucket).Msg("init object storage")
				return nil, err
			}
			logger.Warn().Err(err).Str("bucket", remote.Bucket).Msg("object storage unreachable, existing remote files cannot be removed")
			break
		}
		objects = client
		if !remote.Enabled {
			logger.Info().Str("bucket", remote.Bucket).Msg("remote storage disabled for new uploads, keeping client for existing files")
		}
	case remote.Enabled:
		logger.Warn().Msg("remote storage enabled without credentials, using local backends")
	}

	gateway, err := storage.NewGateway(cfg.Storage, objects, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage gateway: %w", err)
	}
	return gateway, nil
}

func initEvents(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (*events.EventBus, *worker.EventRelay, *events.AMQPPublisher) {
	bus := events.NewEventBus()
	bus.OnError(func(event *events.Event, err error) {
		logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
	})
	bus.Subscribe(events.AllEvents, func(event *events.Event) error {
		logger.Debug().Str("event", event.Type).Msg("domain event")
		return nil
	})

	if !cfg.Events.AMQP.Enabled {
		return bus, nil, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.Events.AMQP.URL, cfg.Events.AMQP.Exchange)
	if err != nil {
		logger.Warn().Err(err).Msg("amqp connection failed, continuing without broker")
		return bus, nil, nil
	}

	relay := worker.NewEventRelay(publisher, redisClient, worker.NewRetryPolicy(cfg.Events.AMQP.Retry), logger)
	relay.Start(ctx)
	bus.Subscribe(events.AllEvents, relay.Enqueue)

	logger.Info().Str("exchange", cfg.Events.AMQP.Exchange).Msg("amqp publisher connected")
	return bus, relay, publisher
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) (*service.Notifier, error) {
	n := cfg.Notifications
	dispatcher := notify.NewDispatcher(n.Timeout, logger)

	var email domain.Sender = notify.NewLogSender(logger)
	if n.Enabled {
		email = notify.NewSendGridSender(n.SendGridKey, n.From, n.FromName)
	} else {
		logger.Warn().Msg("notifications disabled, messages are only logged")
	}

	admin := email
	if n.Enabled && n.AdminChannel == config.AdminChannelTelegram {
		bot, err := notify.NewTelegramBot(n.Telegram.BotToken, n.Telegram.Debug)
		if err != nil {
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
		admin = notify.NewTelegramSender(bot, n.Telegram.ChatIDs)
	}

	return service.NewNotifier(dispatcher, email, admin, service.NotifierConfig{
		Brand:        cfg.App.Name,
		MeetingLink:  n.MeetingLink,
		AdminAddress: n.AdminEmail,
		AdminChannel: n.AdminChannel,
	}, logger), nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		// клиент оставляем, failover переключится обратно после восстановления
		logger.Warn().Err(err).Msg("redis connection failed, throttling in memory for now")
		return client
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initThrottle(client *redis.Client, logger *zerolog.Logger) domain.Throttle {
	memory := repository.NewMemoryThrottle()
	if client == nil {
		return memory
	}
	return repository.NewFailoverThrottle(repository.NewRedisThrottle(client), memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
