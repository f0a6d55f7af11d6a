package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
	goamiddleware "goa.design/goa/v3/middleware"

	"urja/internal/config"
	"urja/internal/database"
	applog "urja/internal/logger"
	"urja/internal/metrics"
	"urja/internal/notify"
	"urja/internal/services"
	"urja/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := applog.Init(applog.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "urja-api",
		Version:     cfg.App.Version,
	})
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("host", cfg.App.Host),
		zap.String("port", cfg.App.Port),
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		log.Info("closing database connections")
		if err := database.Close(db); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()

	dispatcher := notify.New(cfg.Mail)
	submissions := services.NewSubmissionService(store.New(db), dispatcher)

	mux := goahttp.NewMuxer()
	services.NewHealthService(cfg.App.Name, db, dispatcher.Configured()).Mount(mux)
	services.NewInquiryService(submissions, cfg.Auth.SecretKey).Mount(mux)

	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Security -> CORS -> request id -> context -> logging -> metrics -> handler
	var handler http.Handler = metrics.PrometheusMiddleware(endpointLabel, rootHandler)
	handler = requestLogging(handler)
	handler = middleware.PopulateRequestContext()(handler)
	handler = middleware.RequestID(middleware.UseXRequestIDHeaderOption(true))(handler)
	handler = setupCORS(handler, cfg)
	handler = setupSecurityHeaders(handler, cfg)

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server failed", zap.Error(err))
		return
	case sig := <-shutdown:
		log.Info("starting graceful shutdown", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("error during graceful shutdown", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			_ = httpServer.Close()
		}
	}

	log.Info("server shutdown complete")
}

// endpointLabel keeps the metrics label set bounded.
func endpointLabel(r *http.Request) string {
	switch p := r.URL.Path; {
	case p == "/health", p == "/api/v1/inquiries":
		return p
	case strings.HasPrefix(p, "/api/v1/inquiries/"):
		return "/api/v1/inquiries/{id}"
	default:
		return "other"
	}
}

// setupSecurityHeaders adds security headers to responses
func setupSecurityHeaders(handler http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Server", "")

		if cfg.App.IsProduction() && r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		handler.ServeHTTP(w, r)
	})
}

// setupCORS lets the public site post the form. Outside production any
// origin is echoed back.
func setupCORS(handler http.Handler, cfg *config.Config) http.Handler {
	allowAll := len(cfg.CORS.AllowedOrigins) == 0 || cfg.CORS.AllowedOrigins[0] == "*"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if cfg.App.IsProduction() && !allowAll && origin != "" {
			allowed := false
			for _, o := range cfg.CORS.AllowedOrigins {
				if origin == o {
					allowed = true
					break
				}
			}
			if !allowed {
				w.WriteHeader(http.StatusForbidden)
				return
			}
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		} else if !cfg.App.IsProduction() {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.CORS.AllowedMethods, ", "))
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.CORS.AllowedHeaders, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", cfg.CORS.MaxAge))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		handler.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging attaches a request-scoped logger to the context and logs
// each completed request. Health checks are not logged.
func requestLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID, _ := ctx.Value(goamiddleware.RequestIDKey).(string)
		l := applog.L().With(zap.String("request_id", requestID))
		r = r.WithContext(applog.ToContext(ctx, l))

		if r.URL.Path == "/health" {
			handler.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		handler.ServeHTTP(wrapped, r)

		l.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}
