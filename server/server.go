package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hourtrim/cache"
	"hourtrim/config"
	"hourtrim/core/audio"
	"hourtrim/core/auth"
	"hourtrim/core/library"
	"hourtrim/core/report"
	"hourtrim/core/watch"
	"hourtrim/db"
	"hourtrim/logger"
	"hourtrim/metrics"
	"hourtrim/repository"
	"hourtrim/storage"

	"github.com/gorilla/mux"
)

// NewRouter wires every route. Workflow APIs answer 401 without a session,
// pages and audio downloads redirect to the login page.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverMiddleware, requestIDMiddleware, accessLogMiddleware, corsMiddleware)

	// 公开端点
	router.HandleFunc("/api/health", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/signup", h.SignupHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", h.LogoutHandler).Methods(http.MethodPost)

	// 需要登录的 API
	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.SessionGate(GateReject))
	api.HandleFunc("/auth/me", h.MeHandler).Methods(http.MethodGet)
	api.HandleFunc("/folders", h.FoldersHandler).Methods(http.MethodGet)
	api.HandleFunc("/clips", h.ClipsHandler).Methods(http.MethodGet)
	api.HandleFunc("/missing", h.MissingHandler).Methods(http.MethodGet)
	api.HandleFunc("/report", h.ReportHandler).Methods(http.MethodGet)
	api.HandleFunc("/trim", h.TrimHandler).Methods(http.MethodPost)
	api.HandleFunc("/trims", h.TrimHistoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/events", h.EventsHandler).Methods(http.MethodGet)

	// 需要登录的页面和音频文件
	gate := h.SessionGate(GateRedirect)
	router.PathPrefix("/audio_files/").Handler(gate(NewStaticHandler("/audio_files/", h.layout.AudioRoot)))
	router.PathPrefix("/trimmed_files/").Handler(gate(NewStaticHandler("/trimmed_files/", h.layout.TrimmedRoot)))

	ui := http.FileServer(http.Dir(h.cfg.WebAppDir))
	router.Path(LoginPath).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(h.cfg.WebAppDir, "login.html"))
	})
	router.Path("/trim").Handler(gate(ui))
	router.PathPrefix("/trim/").Handler(gate(ui))

	// Frontend UI serving
	router.PathPrefix("/").Handler(ui)

	return router
}

// OpenDurationCache returns the Redis duration cache when Redis is enabled and
// reachable, otherwise a process-local one. The returned func releases the
// Redis client.
func OpenDurationCache(ctx context.Context, cfg *config.Config) (cache.DurationCache, func()) {
	if !cfg.RedisEnabled {
		return cache.NewMemoryDurationCache(), func() {}
	}
	client, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, caching durations in memory", logger.ErrorField(err))
		return cache.NewMemoryDurationCache(), func() {}
	}
	logger.Info("Successfully connected to Redis", logger.String("addr", cfg.RedisAddr()))
	return cache.NewRedisDurationCache(client), func() { client.Close() }
}

// Start connects the backends, serves HTTP on cfg.ListenAddr and shuts down
// gracefully on SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, dir := range []string{cfg.AudioDir(), cfg.TrimmedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Connect to the database
	sqlDB, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.InitDB(ctx, sqlDB); err != nil {
		return err
	}

	gormDB, err := db.OpenGorm(sqlDB, !cfg.IsProduction())
	if err != nil {
		return err
	}
	if err := db.AutoMigrateModels(gormDB); err != nil {
		return err
	}

	users := repository.NewSQLUserRepository(sqlDB)
	trims := repository.NewGormTrimRecordRepository(gormDB)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL())
	creds := auth.NewService(users, tokens)

	durations, closeCache := OpenDurationCache(ctx, cfg)
	defer closeCache()

	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath)
	opts := []audio.TrimmerOption{
		audio.WithTimeout(cfg.TrimTimeoutDuration()),
		audio.WithRecorder(trims),
	}
	if cfg.ArchiveEnabled() {
		archiver, err := storage.NewMinioArchiver(ctx, cfg)
		if err != nil {
			logger.Warn("MinIO unavailable, archiving disabled", logger.ErrorField(err))
		} else {
			opts = append(opts, audio.WithArchiver(archiver))
		}
	}
	layout := library.NewLayout(cfg.PublicDir)
	trimmer := audio.NewTrimmer(layout, processor, cfg.TrimSeconds, opts...)
	reports := report.NewBuilder(layout, processor, durations, cfg.TrimSeconds)

	var hub *watch.Hub
	if cfg.WatchSidecars {
		hub = watch.NewHub()
		defer hub.Close()
		watcher, err := watch.NewWatcher(cfg.TrimmedDir(), hub)
		if err != nil {
			logger.Warn("library watcher disabled", logger.ErrorField(err))
			hub = nil
		} else {
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logger.Error("library watcher stopped", logger.ErrorField(err))
				}
			}()
		}
	}

	handler := NewAPIHandler(cfg, creds, tokens, trimmer, reports, trims, hub)

	// 设置服务器超时. WriteTimeout stays generous because trims of long
	// recordings run inside the request.
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.ListenAddr),
			logger.String("env", cfg.Env),
			logger.String("public", cfg.PublicDir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
