package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songvault/cache"
	"songvault/config"
	"songvault/core/auth"
	"songvault/core/song"
	"songvault/db"
	"songvault/logger"
	"songvault/model"
	"songvault/repository"
	"songvault/storage"

	"github.com/gorilla/mux"
)

// Start initializes the dependencies and runs the HTTP server until a
// termination signal arrives.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize object storage", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Song{}); err != nil {
		logger.Fatal("failed to migrate database", logger.ErrorField(err))
	}

	// The cache is an optimization; the service runs without it when Redis is
	// unreachable.
	var songCache *cache.SongCache
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, song cache disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
		songCache = cache.NewSongCache(db.RedisClient, time.Duration(cfg.SongCacheTTL)*time.Second)
	}

	songRepo := repository.NewGormSongRepository(db.GormDB)
	songService := newSongService(songRepo, store, songCache, cfg)

	creds, err := auth.DemoCredentials()
	if err != nil {
		logger.Fatal("failed to build credential table", logger.ErrorField(err))
	}
	authService := auth.NewService(auth.NewCredentialStore(creds), auth.TokenConfig{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Secret:   []byte(cfg.JWTSecret),
		Expiry:   time.Duration(cfg.JWTExpiryMinutes) * time.Minute,
	})

	apiHandler := NewAPIHandler(songService, authService)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      NewRouter(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

// newSongService assembles the core service. The nil-interface dance keeps a
// missing cache truly nil behind the service's interface.
func newSongService(repo repository.SongRepository, store storage.ObjectStore, songCache *cache.SongCache, cfg *config.Config) *song.Service {
	presignTTL := time.Duration(cfg.PresignExpiryMinutes) * time.Minute
	if songCache == nil {
		return song.NewService(repo, store, nil, presignTTL)
	}
	return song.NewService(repo, store, songCache, presignTTL)
}

// NewRouter wires the API routes, CORS and auth gates.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/songs",
		h.AuthMiddleware(h.GetSongsHandler, model.RoleAdmin, model.RoleUser)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}",
		h.AuthMiddleware(h.GetSongHandler, model.RoleAdmin, model.RoleUser)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs",
		h.AuthMiddleware(h.CreateSongHandler, model.RoleAdmin)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}",
		h.AuthMiddleware(h.UpdateSongHandler, model.RoleAdmin)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}",
		h.AuthMiddleware(h.DeleteSongHandler, model.RoleAdmin)).Methods(http.MethodDelete)

	return router
}
