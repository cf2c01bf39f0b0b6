package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"marks-quartile-server/analysis"
	"marks-quartile-server/config"
	"marks-quartile-server/db"
	"marks-quartile-server/handlers"
	"marks-quartile-server/logging"
	"marks-quartile-server/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	recorder := metrics.NewRecorder()

	// The report cache is optional; without Redis every upload is decoded.
	var cache analysis.ReportCache
	if cfg.Redis.Enabled {
		redisClient, err := db.InitializeRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Report cache disabled", slog.Any("error", err))
		} else {
			defer redisClient.Close()
			cache = db.NewRedisCache(redisClient, cfg.Redis.TTL)
		}
	}

	// Create API Handler (injecting the analyzer)
	apiHandler := handlers.NewAPIHandler(analysis.NewAnalyzer(cache, recorder), cfg.Chart, cfg.Server.MaxUploadBytes)

	// Initialize Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware())
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	// Setup API routes
	apiHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(recorder.Handler()))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
