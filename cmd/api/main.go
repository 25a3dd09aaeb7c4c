package main

import (
	"context"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orbit/orbit-api/internal/config"
	"github.com/orbit/orbit-api/internal/domain/chat"
	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/domain/meetup"
	"github.com/orbit/orbit-api/internal/domain/relationships"
	"github.com/orbit/orbit-api/internal/domain/user"
	"github.com/orbit/orbit-api/internal/middleware"
	"github.com/orbit/orbit-api/internal/pkg/database"
	"github.com/orbit/orbit-api/internal/pkg/jwt"
	"github.com/orbit/orbit-api/internal/pkg/logger"
	pkgresponse "github.com/orbit/orbit-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()

	logCloser, err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open log file")
	}
	defer logCloser.Close()

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Orbit API")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	dir := directory.NewService()

	// ---------- WebSocket hub ----------
	hub := chat.NewHub(redisClient, cfg.WSSendBuffer)
	go hub.Run()
	dir.Subscribe(hub)

	if cfg.SeedFile != "" {
		if err := directory.LoadSeedFile(ctx, dir, cfg.SeedFile); err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("Failed to load seed")
		}
	}

	r := newRouter(cfg, dir, hub, redisClient, jwtService)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, dir *directory.Service, hub *chat.Hub, redisClient *redis.Client, jwtService *jwt.Service) chi.Router {
	authMiddleware := middleware.Auth(jwtService)

	// ---------- Handlers ----------
	userHandler := user.NewHandler(dir, jwtService, hub)
	meetupHandler := meetup.NewHandler(dir)
	chatHandler := chat.NewHandler(dir, hub,
		chat.NewRateLimiter(redisClient, cfg.ChatRateLimit, cfg.ChatRateLimitWindow),
		cfg.WebSocketOrigins(),
	)
	relationshipsHandler := relationships.NewHandler(dir)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket event feed, token in ?token=
	r.Get("/ws", chatHandler.WSRoute(authMiddleware))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]interface{}{
			"status":      "ok",
			"version":     "1.0.0",
			"directory":   dir.Stats(),
			"connections": hub.GetConnectionCount(),
		})
	})
	r.Handle("/debug/vars", expvar.Handler())

	// Compress everything except the websocket route
	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				pkgresponse.OK(w, map[string]string{"message": "pong"})
			})

			r.Mount("/users", userHandler.Routes(authMiddleware))
			r.Mount("/meetups", meetupHandler.Routes(authMiddleware))
			r.Mount("/chat", chatHandler.Routes(authMiddleware))
			r.Mount("/relationships", relationshipsHandler.Routes(authMiddleware))
		})
	})

	return r
}
