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

	jwtauth "shelter-partner/internal/adapters/auth/jwt"
	"shelter-partner/internal/adapters/notify/lognotify"
	"shelter-partner/internal/adapters/notify/rabbitmq"
	mem "shelter-partner/internal/adapters/storage/memory"
	mdb "shelter-partner/internal/adapters/storage/mongo"
	pg "shelter-partner/internal/adapters/storage/postgres"
	"shelter-partner/internal/config"
	"shelter-partner/internal/domain/animals"
	"shelter-partner/internal/platform/logger"
	"shelter-partner/internal/platform/telemetry"
	"shelter-partner/internal/ports/auth"
	"shelter-partner/internal/ports/docstore"
	"shelter-partner/internal/router"
)

// @title Shelter Partner API
// @version 1.0
// @description Check-out / check-in de animales del refugio y registro de visitas.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

// run arma y sirve la app. Los recursos se cierran con defer antes de volver,
// también cuando el server falla.
func run(cfg config.Config) error {
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	shutdownTracing := telemetry.Setup(telemetry.Options{
		ServiceName: cfg.AppName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	}, log)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store init failed", map[string]any{"backend": cfg.StoreBackend, "err": err})
		return err
	}
	defer closeStore()

	var notifier animals.Notifier = lognotify.New(log.With(map[string]any{"component": "notify"}))
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Error("rabbitmq init failed", map[string]any{"err": err})
			return err
		}
		defer pub.Close()
		notifier = pub
	}

	// sin secreto => modo dev (X-Debug-User-ID)
	var verifier auth.AuthVerifier
	if cfg.JWTSecret != "" {
		verifier = jwtauth.NewVerifier(cfg.JWTSecret)
	} else {
		log.Warn("JWT_SECRET not set, running in dev auth mode", nil)
	}

	minDuration := cfg.MinimumDuration()
	r := router.NewRouter(router.Options{
		AuthVerifier:    verifier,
		Store:           store,
		MinimumDuration: &minDuration,
		Logger:          log,
		Notifier:        notifier,
		ServiceName:     cfg.AppName,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr(), "store": cfg.StoreBackend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := waitForShutdown(serverErr, stop, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	log.Info("shutting down", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", map[string]any{"err": err})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown error", map[string]any{"err": err})
	}

	return serveErr
}

// waitForShutdown bloquea hasta una señal o un error del server.
// Devuelve el error del server; nil si fue una señal.
func waitForShutdown(serverErr <-chan error, stop <-chan os.Signal, log logger.Logger) error {
	select {
	case err := <-serverErr:
		log.Error("server error", map[string]any{"err": err})
		return err
	case sig := <-stop:
		log.Info("signal received", map[string]any{"signal": sig.String()})
		return nil
	}
}

func openStore(ctx context.Context, cfg config.Config, log logger.Logger) (docstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return pg.NewDocStore(db), func() { _ = db.Close() }, nil

	case config.BackendMongo:
		client, err := mdb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		s := mdb.NewDocStore(client.Database(cfg.MongoDB).Collection(mdb.DefaultCollection))
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Warn("mongo index creation failed", map[string]any{"err": err})
		}
		return s, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		log.Warn("using in-memory store, data is lost on restart", nil)
		return mem.NewDocStore(), func() {}, nil
	}
}
