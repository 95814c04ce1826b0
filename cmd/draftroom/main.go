package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftday/draftroom/internal/catalog"
	"github.com/draftday/draftroom/internal/gateway"
	"github.com/draftday/draftroom/internal/history"
	"github.com/draftday/draftroom/internal/repository"
	"github.com/draftday/draftroom/internal/room"
	"github.com/draftday/draftroom/internal/sessions"
	"github.com/draftday/draftroom/internal/timer"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Room store: Postgres when a host is configured, in-memory otherwise.
	var store repository.RoomStore
	if config.Database.Host != "" {
		db, err := setupDatabase(config.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		pg := repository.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		store = pg
		log.Info().Str("host", config.Database.Host).Msg("using postgres room store")
	} else {
		store = repository.NewMemoryStore()
		log.Info().Msg("using in-memory room store")
	}

	// History sink: JetStream when NATS is configured, log-only otherwise.
	var sink history.Sink
	if config.NATSURL != "" {
		js, err := history.NewJetStreamSink(history.DefaultJetStreamConfig(config.NATSURL))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer js.Close()
		sink = js
		log.Info().Str("nats_url", config.NATSURL).Msg("using JetStream history sink")
	} else {
		sink = history.NewLogSink()
	}

	sessionMap := sessions.NewMap()
	timerService := timer.New(clockwork.NewRealClock())
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	engine := room.NewEngine(store, sessionMap, timerService, manager, sink, catalog.DefaultPool(), config.EngineConfig())
	timerService.Bind(engine)
	manager.Bind(engine)

	go manager.Start(ctx)

	mux := http.NewServeMux()
	gateway.NewHandler(manager, engine, sessionMap).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    config.HTTPAddr,
		Handler: cors.AllowAll().Handler(mux),
	}

	go func() {
		log.Info().Str("addr", config.HTTPAddr).Msg("draftroom server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
