package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/events"
	"github.com/stemsi/quizroom/internal/handler"
	"github.com/stemsi/quizroom/internal/logger"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/middleware"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/router"
	"github.com/stemsi/quizroom/internal/server"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stemsi/quizroom/internal/validator"
	"github.com/stemsi/quizroom/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("listen", cfg.ListenAddr()).
		Str("http_port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Int("workers", cfg.Workers).
		Msg("Starting quiz server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Apply Migrations ──────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.Migrate(cfg, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// ─── Open Store ────────────────────────────────────────────────────
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer db.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	examRepo := repository.NewExamRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// ─── Session Store (Redis when configured) ─────────────────────────
	var sessions service.SessionStore = sessionRepo
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		sessions = repository.NewSessionCache(rdb)
	}

	// ─── Event Publisher (NATS when configured) ────────────────────────
	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		pub = np
	}
	defer pub.Close()

	// ─── Initialize Services ──────────────────────────────────────────
	lock := service.NewStoreLock()
	authService := service.NewAuthService(lock, userRepo, sessions, cfg.SessionTTL, cfg.BcryptCost, log)
	roomService := service.NewRoomService(db, lock, roomRepo, pub, log)
	examService := service.NewExamService(db, lock, roomRepo, examRepo, questionRepo, pub, log)
	practiceService := service.NewPracticeService(lock, practiceRepo, questionRepo, log)
	resultService := service.NewResultService(lock, roomRepo, resultRepo)

	// ─── Dispatcher & Protocol Server ─────────────────────────────────
	pool := worker.NewPool(cfg.Workers, log)
	pool.ObserveDepth(metrics.SetQueueDepth)

	actions := handler.NewActions(authService, roomService, examService, practiceService, resultService, log)
	dispatcher := server.NewDispatcher(pool, actions, log)
	srv := server.New(cfg.ListenAddr(), dispatcher, pool, log)
	if err := srv.Listen(); err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr().String()).Msg("Protocol server listening")
		serveErr <- srv.Serve()
	}()

	// ─── Ops HTTP Server & WebSocket Gateway ──────────────────────────
	var httpSrv *http.Server
	var limiter *middleware.RateLimiter
	if cfg.HTTPEnabled() {
		wsHandler := handler.NewWSHandler(dispatcher, cfg.AllowedOrigins, log)
		handlers := &router.Handlers{
			WS: wsHandler,
			System: handler.NewSystemHandler(db, handler.SystemStats{
				QueueDepth:  pool.Len,
				Connections: func() int { return srv.ConnCount() + wsHandler.Active() },
			}, log),
		}
		limiter = middleware.NewRateLimiter(cfg.WSRateLimit, time.Minute)

		httpSrv = &http.Server{
			Addr:    net.JoinHostPort(cfg.ListenHost, cfg.HTTPPort),
			Handler: router.SetupRouter(handlers, limiter, cfg),
		}
		go func() {
			log.Info().Str("addr", httpSrv.Addr).Msg("HTTP server listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("HTTP server error")
			}
		}()
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	expiry := worker.NewExpiryWorker(examService, cfg.SweepInterval, log).
		WithSessionPurge(authService)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := expiry.Start(workerCtx); err != nil {
			log.Error().Err(err).Msg("Expiry worker failed")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	case err := <-serveErr:
		log.Error().Err(err).Msg("Protocol server stopped")
	}

	// 1. Stop accepting new HTTP requests (5s timeout).
	if httpSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		shutdownCancel()
		limiter.Stop()
	}

	// 2. Stop the sweep and wait for a running pass.
	workerCancel()
	<-workerDone

	// 3. Close connections and drain queued requests.
	srv.Shutdown()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
