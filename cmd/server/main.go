package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennisdiepolder/workforce/internal/api"
	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/config"
	"github.com/dennisdiepolder/workforce/internal/fanout"
	"github.com/dennisdiepolder/workforce/internal/metrics"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/dennisdiepolder/workforce/internal/ticker"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/dennisdiepolder/workforce/internal/websocket"
	"github.com/dennisdiepolder/workforce/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store", string(cfg.StoreBackend)).
		Str("instance", cfg.InstanceID).
		Msg("starting workforce server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := storage.NewStore(ctx, cfg.StoreOptions(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open call store")
	}
	defer closeStore()

	repo := repository.New(store, repository.ModeWriteThrough, log.Logger)
	defer repo.Close()

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// every change, local or reloaded, reaches the subscribers
	repo.Subscribe(func(calls []types.Call) {
		metrics.Get().UpdateCallStats(calls)
		if err := hub.Publish(calls); err != nil {
			log.Error().Err(err).Msg("failed to publish snapshot")
		}
	})

	if err := repo.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load calls")
	}

	var opts []api.Option
	if cfg.RedisAddr != "" {
		rdb, err := fanout.OpenRedis(ctx, fanout.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		fan := fanout.New(rdb, cfg.InstanceID, repo, log.Logger)
		go fan.Run(ctx)
		opts = append(opts, api.WithNotifier(fan))
	}

	resync := ticker.NewTicker(repo, hub, cfg.ResyncInterval, log.Logger)
	go resync.Start(ctx)

	authenticator := auth.NewAuthenticator(cfg.AuthConfig(), log.Logger)
	calls := api.NewCallsHandler(repo, log.Logger, opts...)
	wsHandler := websocket.NewHandler(hub, repo, cfg, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, authenticator, calls, wsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// stop ticker and fanout
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newRouter(cfg *config.Config, authenticator *auth.Authenticator, calls *api.CallsHandler, ws http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	r.Group(func(r chi.Router) {
		r.Use(authenticator.Middleware)
		r.Get("/ws", ws.ServeHTTP)
		r.Route("/api", func(r chi.Router) {
			calls.Routes(r, auth.RequireWriter)
		})
	})

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"workforce"}`)
}
