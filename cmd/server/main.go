package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"voicegate/internal/platform/config"
	"voicegate/internal/platform/health"
	"voicegate/internal/platform/logger"
	httpmetrics "voicegate/internal/platform/metrics"
	"voicegate/internal/platform/tracer"
	engineconfig "voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/enrollment"
	"voicegate/internal/voiceauth/handler"
	"voicegate/internal/voiceauth/metrics"
	"voicegate/internal/voiceauth/session"
	"voicegate/pkg/platform/audit"
	"voicegate/pkg/platform/audit/publisher"
	"voicegate/pkg/platform/middleware/admin"
	"voicegate/pkg/platform/middleware/metadata"
	request "voicegate/pkg/platform/middleware/request"
	vsync "voicegate/pkg/platform/sync"
	"voicegate/pkg/validation"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in internal/voiceauth.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := engineconfig.DefaultConfig()
	if cfg.PolicyFile != "" {
		loaded, err := engineconfig.Load(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
		policy = loaded
	}

	log.Info("initializing voicegate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"decision_mode", policy.Decision.Mode,
	)

	backend, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	auditPublisher := publisher.NewPublisher(
		publisher.NewLogSink(log),
		publisher.WithAsyncBuffer(1024),
		publisher.WithPublisherLogger(log),
	)
	defer auditPublisher.Close()
	auditor := audit.NewLogger(log, auditPublisher)

	engineMetrics := metrics.New(prometheus.DefaultRegisterer)
	otelTracer := tracer.NewOTel()
	locks := vsync.NewKeyedMutex()

	enrollmentSvc, err := enrollment.New(backend.store, policy,
		enrollment.WithLogger(log),
		enrollment.WithAuditLogger(auditor),
		enrollment.WithMetrics(engineMetrics),
		enrollment.WithTracer(otelTracer),
		enrollment.WithLocks(locks),
	)
	if err != nil {
		return fmt.Errorf("enrollment service: %w", err)
	}
	sessionSvc, err := session.New(backend.store, policy,
		session.WithLogger(log),
		session.WithAuditLogger(auditor),
		session.WithMetrics(engineMetrics),
		session.WithTracer(otelTracer),
		session.WithLocks(locks),
	)
	if err != nil {
		return fmt.Errorf("session service: %w", err)
	}

	trustedProxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	healthHandler := health.New(cfg.Environment, backend.kind)
	backend.registerChecks(healthHandler)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.NewMiddleware(metadata.Config{TrustedProxies: trustedProxies}).Handler)
	r.Use(request.Logger(log))
	r.Use(httpmetrics.NewHTTP(prometheus.DefaultRegisterer).Middleware)

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(api chi.Router) {
		api.Use(request.BodyLimit(validation.MaxBodySize))
		api.Use(request.ContentTypeJSON)
		h := handler.New(enrollmentSvc, sessionSvc, log)
		h.Register(api)
		if cfg.AdminToken == "" {
			log.Warn("VOICEGATE_ADMIN_TOKEN not set, operator routes disabled")
			return
		}
		api.Group(func(ops chi.Router) {
			ops.Use(admin.RequireAdminToken(cfg.AdminToken, log))
			h.RegisterAdmin(ops)
		})
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr, "profile_store", backend.kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if backend.redis != nil {
		g.Go(func() error {
			return backend.redis.RunPoolStats(gctx, 15*time.Second)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
