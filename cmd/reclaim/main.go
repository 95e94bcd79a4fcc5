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

	"github.com/reclaimhq/reclaim/internal/config"
	dbRedis "github.com/reclaimhq/reclaim/internal/db/redis"
	"github.com/reclaimhq/reclaim/internal/domain"
	dommatch "github.com/reclaimhq/reclaim/internal/domain/match"
	logpkg "github.com/reclaimhq/reclaim/internal/logger"
	"github.com/reclaimhq/reclaim/internal/metrics"
	followuprepo "github.com/reclaimhq/reclaim/internal/repository/followup"
	itemrepo "github.com/reclaimhq/reclaim/internal/repository/item"
	userrepo "github.com/reclaimhq/reclaim/internal/repository/user"
	chiTransport "github.com/reclaimhq/reclaim/internal/transport/chi"
	openaiEmb "github.com/reclaimhq/reclaim/internal/transport/openai"
	smtpTransport "github.com/reclaimhq/reclaim/internal/transport/smtp"
	audituc "github.com/reclaimhq/reclaim/internal/usecase/audit"
	followupuc "github.com/reclaimhq/reclaim/internal/usecase/followup"
	healthuc "github.com/reclaimhq/reclaim/internal/usecase/health"
	matchuc "github.com/reclaimhq/reclaim/internal/usecase/match"
	notifyuc "github.com/reclaimhq/reclaim/internal/usecase/notify"
	"github.com/reclaimhq/reclaim/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting reclaim API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
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

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchingMetrics()

	imageEmb := buildExtractor("image", cfg, logger)
	textEmb := buildExtractor("text", cfg, logger)
	logger.Info("Feature extractors created",
		zap.String("image_model", cfg.Embedding.Image.Model),
		zap.String("text_model", cfg.Embedding.Text.Model),
	)

	// Repositories
	items := itemrepo.New(store, cfg.Storage.KeyPrefix)
	users := userrepo.New(store, cfg.Storage.KeyPrefix)
	jobs := followuprepo.New(store, cfg.Storage.KeyPrefix)

	// Mail notifier. Without SMTP config alerts are logged and dropped.
	var alerts interface {
		SendMatchAlert(ctx context.Context, to domain.UserProfile, about, matched domain.ItemRecord,
			matchedOwner domain.UserProfile, res dommatch.Result) error
		SendFollowUpAlert(ctx context.Context, to domain.UserProfile, about domain.ItemRecord) error
	}
	if cfg.SMTP.Host != "" {
		notifier, err := smtpTransport.New(smtpTransport.Config{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create SMTP notifier", zap.Error(err))
		}
		alerts = notifier
	} else {
		logger.Warn("SMTP not configured, match alerts will be dropped")
		alerts = droppingNotifier{logger: logger}
	}

	dispatcher := notifyuc.NewDispatcher(users, alerts, logger)

	// Follow-up pipeline
	followupSvc := followupuc.New(
		jobs, items, users, alerts,
		time.Duration(cfg.FollowUp.DelayHours)*time.Hour,
		logger,
	)
	poller := followupuc.NewScheduler(
		followupSvc,
		time.Duration(cfg.FollowUp.PollIntervalSec)*time.Second,
		cfg.FollowUp.BatchSize,
		logger,
	)
	poller.Start(ctx)
	defer poller.Stop()

	// Use case services
	matchSvc := matchuc.New(items, users, imageEmb, textEmb, dispatcher, followupSvc, logger)
	auditSvc := audituc.New(items, textEmb, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(textEmb))

	// Create chi server
	server := chiTransport.NewServer(items, matchSvc, auditSvc, healthSvc, logger)

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

// buildExtractor creates the feature extractor for one modality.
func buildExtractor(modality string, cfg config.Config, logger *zap.Logger) domain.Embedder {
	var extCfg config.ExtractorConfig
	switch modality {
	case "image":
		extCfg = cfg.Embedding.Image
	default:
		extCfg = cfg.Embedding.Text
	}
	provCfg := cfg.Embedding.Providers[extCfg.Provider]

	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      extCfg.Model,
		Dimensions: extCfg.Dimensions,
		Modality:   modality,
		Logger:     logger,
	})
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// droppingNotifier logs alerts instead of delivering them.
type droppingNotifier struct {
	logger *zap.Logger
}

func (d droppingNotifier) SendMatchAlert(
	_ context.Context,
	to domain.UserProfile,
	about, matched domain.ItemRecord,
	_ domain.UserProfile,
	res dommatch.Result,
) error {
	d.logger.Warn("dropping match alert, SMTP not configured",
		zap.String("to", to.Email),
		zap.String("item_id", about.ID),
		zap.String("matched_id", matched.ID),
		zap.Float64("confidence", res.Confidence),
	)
	return nil
}

func (d droppingNotifier) SendFollowUpAlert(_ context.Context, to domain.UserProfile, about domain.ItemRecord) error {
	d.logger.Warn("dropping follow-up alert, SMTP not configured",
		zap.String("to", to.Email),
		zap.String("item_id", about.ID),
	)
	return nil
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
