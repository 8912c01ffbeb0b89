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

	"github.com/urpick/urpick/internal/config"
	dbRedis "github.com/urpick/urpick/internal/db/redis"
	logpkg "github.com/urpick/urpick/internal/logger"
	"github.com/urpick/urpick/internal/metrics"
	preferencerepo "github.com/urpick/urpick/internal/repository/preference"
	swiperepo "github.com/urpick/urpick/internal/repository/swipe"
	userrepo "github.com/urpick/urpick/internal/repository/user"
	"github.com/urpick/urpick/internal/transport/amazon"
	chiTransport "github.com/urpick/urpick/internal/transport/chi"
	"github.com/urpick/urpick/internal/transport/mockshop"
	openaiReasoner "github.com/urpick/urpick/internal/transport/openai"
	"github.com/urpick/urpick/internal/transport/rakuten"
	"github.com/urpick/urpick/internal/transport/yahoo"
	"github.com/urpick/urpick/internal/usecase/aggregate"
	healthuc "github.com/urpick/urpick/internal/usecase/health"
	profileuc "github.com/urpick/urpick/internal/usecase/profile"
	recommenduc "github.com/urpick/urpick/internal/usecase/recommend"
	"github.com/urpick/urpick/internal/version"
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

	logger.Info("Starting urpick API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("mock_providers", cfg.Providers.UseMock),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Create repositories (domain-native, no adapters)
	users := userrepo.New(store, cfg.Database.KeyPrefix)
	swipes := swiperepo.New(store, cfg.Database.KeyPrefix)
	prefs := preferencerepo.New(store, cfg.Database.KeyPrefix)

	// Shopping providers — composition root
	clients := buildSourceClients(cfg.Providers, logger)
	aggSvc := aggregate.New(clients, aggregate.RetryPolicy{
		MaxRetries:   cfg.Recommend.Retry.MaxRetries,
		InitialDelay: time.Duration(cfg.Recommend.Retry.InitialDelayMS) * time.Millisecond,
		Multiplier:   cfg.Recommend.Retry.BackoffMultiplier,
	}).WithTimeouts(
		time.Duration(cfg.Recommend.AvailabilityTimeoutMS)*time.Millisecond,
		time.Duration(cfg.Recommend.SearchTimeoutMS)*time.Millisecond,
	)

	reasoner := openaiReasoner.NewReasoner(&openaiReasoner.Config{
		APIKey:  cfg.Reasoning.APIKey,
		BaseURL: cfg.Reasoning.BaseURL,
		Model:   cfg.Reasoning.Model,
		Logger:  logger,
	})
	logger.Info("Reasoning service created",
		zap.String("model", cfg.Reasoning.Model),
		zap.Bool("configured", cfg.Reasoning.APIKey != ""),
	)

	// Create use case services
	recommendSvc := recommenduc.New(aggSvc, reasoner, swipes, prefs).WithTuning(
		cfg.Recommend.CandidateLimit,
		cfg.Recommend.NewUserThreshold,
		time.Duration(cfg.Reasoning.SelectTimeoutSec)*time.Second,
		time.Duration(cfg.Reasoning.ReasonTimeoutSec)*time.Second,
	)
	profileSvc := profileuc.New(users, swipes, prefs)

	// Health service. Pass nil interface (not typed nil pointer!) when the
	// reasoner has no credentials to probe.
	var reasoningChecker healthuc.ReasoningChecker
	if cfg.Reasoning.APIKey != "" {
		reasoningChecker = reasoner
	}
	healthSvc := healthuc.New(store, reasoningChecker)

	// Create chi server
	server := chiTransport.NewServer(recommendSvc, profileSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// buildSourceClients assembles the provider fan-out set. With use_mock the
// whole set is replaced by the fixed demo catalog; otherwise every real
// provider is wired and providers without credentials exclude themselves
// via their availability probe.
func buildSourceClients(cfg config.ProvidersConfig, logger *zap.Logger) []aggregate.SourceClient {
	if cfg.UseMock {
		logger.Info("Using mock shopping provider")
		return []aggregate.SourceClient{mockshop.New()}
	}

	return []aggregate.SourceClient{
		rakuten.New(&rakuten.Config{
			AppID:       cfg.Rakuten.AppID,
			AffiliateID: cfg.Rakuten.AffiliateID,
			Logger:      logger,
		}),
		yahoo.New(&yahoo.Config{
			ClientID: cfg.Yahoo.ClientID,
			Logger:   logger,
		}),
		amazon.New(&amazon.Config{
			AccessKey:  cfg.Amazon.AccessKey,
			SecretKey:  cfg.Amazon.SecretKey,
			PartnerTag: cfg.Amazon.PartnerTag,
			Logger:     logger,
		}),
	}
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
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success": false,
						"error": map[string]string{
							"code":    "INTERNAL_ERROR",
							"message": "internal error",
						},
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
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
