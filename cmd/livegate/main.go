package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/config"
	dbRedis "github.com/veridian-id/livegate/internal/db/redis"
	logpkg "github.com/veridian-id/livegate/internal/logger"
	"github.com/veridian-id/livegate/internal/metrics"
	journalrepo "github.com/veridian-id/livegate/internal/repository/journal"
	cameraTransport "github.com/veridian-id/livegate/internal/transport/camera"
	chiTransport "github.com/veridian-id/livegate/internal/transport/chi"
	detectorTransport "github.com/veridian-id/livegate/internal/transport/detector"
	gatewayTransport "github.com/veridian-id/livegate/internal/transport/gateway"
	attendanceuc "github.com/veridian-id/livegate/internal/usecase/attendance"
	captureuc "github.com/veridian-id/livegate/internal/usecase/capture"
	enrolluc "github.com/veridian-id/livegate/internal/usecase/enroll"
	healthuc "github.com/veridian-id/livegate/internal/usecase/health"
	livenessuc "github.com/veridian-id/livegate/internal/usecase/liveness"
	"github.com/veridian-id/livegate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting livegate server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("camera", cfg.Camera.SnapshotURL),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Transport clients
	camera := cameraTransport.NewClient(&cameraTransport.Config{
		SnapshotURL: cfg.Camera.SnapshotURL,
		Timeout:     time.Duration(cfg.Camera.TimeoutMs) * time.Millisecond,
		Logger:      logger,
	})
	detector := detectorTransport.NewClient(&detectorTransport.Config{
		BaseURL: cfg.Detector.BaseURL,
		Timeout: time.Duration(cfg.Detector.TimeoutMs) * time.Millisecond,
		Logger:  logger,
	})
	gateway := gatewayTransport.NewClient(&gatewayTransport.Config{
		BaseURL: cfg.Gateway.BaseURL,
		APIKey:  cfg.Gateway.APIKey,
		Timeout: time.Duration(cfg.Gateway.TimeoutMs) * time.Millisecond,
		Logger:  logger,
	})

	// Pipeline use cases — one capture service owns the camera
	sampler := captureuc.New(camera, detector, logger)
	verifier := livenessuc.New(sampler, logger).
		WithStatus(func(stage string) {
			logger.Info("liveness stage", zap.String("stage", stage))
		})
	journal := journalrepo.New(store, cfg.Journal.KeyPrefix,
		time.Duration(cfg.Journal.RetentionDay)*24*time.Hour)

	enrollSvc := enrolluc.New(sampler, gateway, logger).
		WithStatus(func(stage string) {
			logger.Info("enrollment stage", zap.String("stage", stage))
		}).
		WithJournal(journal)

	attendanceSvc := attendanceuc.New(verifier, gateway, journal, logger)
	healthSvc := healthuc.New(store, detector, gateway)

	server := chiTransport.NewServer(attendanceSvc, enrollSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
