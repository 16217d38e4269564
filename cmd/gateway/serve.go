package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/bazaar/storefront-gateway/internal/api"
	"github.com/bazaar/storefront-gateway/internal/api/middleware"
	"github.com/bazaar/storefront-gateway/internal/core/service"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/backend"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/config"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/db/mongo"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/db/redis"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/queue"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/upstream"
	"github.com/bazaar/storefront-gateway/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "storefront-gateway",
	})

	roles, err := config.LoadRoles(cfg.RolesFile)
	if err != nil {
		return err
	}

	var opts []service.FactoryOption

	var rdb *redisclient.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, service.WithPrincipalCache(redis.NewPrincipalCache(rdb, cfg.Redis.TTL)))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("principal cache enabled")
	}

	var db *mongodriver.Database
	var dispatcher *queue.Dispatcher
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if cfg.Audit.Enabled {
		var client *mongodriver.Client
		client, db, err = mongo.Connect(ctx, mongo.Config{URI: cfg.Audit.MongoURI, Database: cfg.Audit.Database, AppName: "storefront-gateway"})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongo.NewAuditRepository(db, cfg.Audit.Retention)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		dispatcher = queue.NewDispatcher(cfg.Audit.Workers, repo, log)
		dispatcher.Start(workersCtx)
		opts = append(opts, service.WithAuditSink(dispatcher))
		log.Info().Str("database", cfg.Audit.Database).Int("workers", cfg.Audit.Workers).Msg("audit trail enabled")
	}

	sessions, err := service.NewSessionFactory(roles, backend.NewClient(cfg.BackendURL, 0), log, opts...)
	if err != nil {
		return err
	}

	e, err := api.NewRouter(api.Deps{
		Sessions: sessions,
		Forwarder: upstream.NewForwarder(upstream.ForwarderConfig{
			BaseURL:    cfg.BackendURL,
			CookieName: cfg.Proxy.Cookie,
			Timeout:    cfg.Proxy.Timeout,
		}),
		ProxyMount:    cfg.Proxy.Mount,
		StaticDir:     cfg.StaticDir,
		EdgeVerifier:  middleware.NewTokenVerifier(cfg.EdgeJWTSecret),
		ShowDetails:   cfg.IsDevelopment(),
		EnableSwagger: cfg.IsDevelopment(),
		Mongo:         db,
		Redis:         rdb,
		Log:           log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if dispatcher != nil {
		stopWorkers()
		dispatcher.Wait()
	}
	return nil
}
