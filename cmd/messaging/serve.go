package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/condo-messaging/internal/api"
	"github.com/LeventeLantos/condo-messaging/internal/cache"
	"github.com/LeventeLantos/condo-messaging/internal/client"
	"github.com/LeventeLantos/condo-messaging/internal/config"
	"github.com/LeventeLantos/condo-messaging/internal/events"
	"github.com/LeventeLantos/condo-messaging/internal/phone"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
	"github.com/LeventeLantos/condo-messaging/internal/scheduler"
	"github.com/LeventeLantos/condo-messaging/internal/service"
	"github.com/LeventeLantos/condo-messaging/migrations"
)

const (
	defaultPollInterval = 300 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the integration status poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if migrate {
				if err := migrations.Up(cfg.Database.PostgresURL); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

// pollSchedule returns the poller interval and whether it starts with the
// server. A zero interval leaves the poller stopped with the default period.
func pollSchedule(cfg *config.Config) (time.Duration, bool) {
	if cfg.Poller.Interval <= 0 {
		return defaultPollInterval, false
	}
	return cfg.Poller.Interval, true
}

func newOutboundCache(ctx context.Context, cfg config.RedisConfig) (cache.OutboundCache, func(), error) {
	if !cfg.Enabled {
		log.Info().Dur("ttl", cfg.TTL).Msg("using in-process outbound cache")
		return cache.NewMemoryCache(cfg.TTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info().Str("addr", cfg.Address).Int("db", cfg.DB).Msg("redis outbound cache connected")
	return cache.NewRedisCache(rdb, cfg.TTL), func() { _ = rdb.Close() }, nil
}

func newPublisher(cfg config.AMQPConfig) events.Publisher {
	if cfg.URL == "" {
		return events.Noop{}
	}
	p, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, change feed disabled")
		return events.Noop{}
	}
	return p
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := repo.OpenPostgres(ctx, cfg.Database.PostgresURL)
	if err != nil {
		return err
	}
	defer db.Close()
	store := repo.NewPostgresStore(db)

	outbound, closeCache, err := newOutboundCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher := newPublisher(cfg.AMQP)
	defer publisher.Close()

	if cfg.ZAPI.Token == "" {
		log.Warn().Msg("ZAPI_TOKEN not set, send and disconnect will fail")
	}
	if cfg.ZAPI.WebhookToken == "" {
		log.Warn().Msg("ZAPI_WEBHOOK_TOKEN not set, webhook will reject every call")
	}

	deps := service.Deps{
		Store:         store,
		Provider:      client.NewZAPIClient(cfg.ZAPI.BaseURL, cfg.ZAPI.Token, cfg.ZAPI.Timeout),
		Cache:         outbound,
		Events:        publisher,
		Phone:         phone.NewNormalizer(cfg.Phone.CountryCode),
		ProviderToken: cfg.ZAPI.Token,
	}

	sender := service.NewSender(deps)
	replier := service.NewAutoReplier(service.AutoReplyOptions{
		Enabled: cfg.AutoReply.Enabled,
		Window:  cfg.AutoReply.Window,
		Text:    cfg.AutoReply.Text,
	}, store, outbound, sender, nil)
	poller := service.NewStatusPoller(deps)

	interval, autoStart := pollSchedule(cfg)
	sched, err := scheduler.New("integration-status", interval, func(ctx context.Context) {
		if n := poller.Poll(ctx); n > 0 {
			log.Info().Int("changed", n).Msg("integration statuses updated")
		}
	})
	if err != nil {
		return err
	}
	if autoStart {
		sched.Start()
	}
	defer sched.Stop()

	h := api.NewHandler(api.Services{
		Ingestor:     service.NewIngestor(deps, replier),
		Sender:       sender,
		Disconnector: service.NewDisconnector(deps),
		Inbox:        service.NewInbox(deps),
	}, sched, cfg.ZAPI.WebhookToken)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Router(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Address).
			Bool("redis", cfg.Redis.Enabled).
			Bool("autoReply", cfg.AutoReply.Enabled).
			Dur("pollInterval", interval).
			Bool("pollerRunning", autoStart).
			Msg("messaging app starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
