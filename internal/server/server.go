package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/content-engine/internal/db"
	"github.com/jonathan/content-engine/internal/orchestrator"
	"github.com/jonathan/content-engine/internal/server/middleware"
	"github.com/jonathan/content-engine/internal/server/ratelimit"
	"github.com/jonathan/content-engine/internal/tasks"
)

// DefaultStreamInterval is how often the stream endpoint polls a task.
const DefaultStreamInterval = time.Second

// Runner executes generation tasks. *orchestrator.Runner implements it.
type Runner interface {
	RunSingle(ctx context.Context, taskID string, job orchestrator.SingleJob) error
	RunDay(ctx context.Context, taskID string, items []orchestrator.Item, shared orchestrator.Shared) error
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	registry       *tasks.Registry
	launcher       *tasks.Launcher
	runner         Runner
	db             *db.DB
	rateLimiter    *ratelimit.Limiter
	validate       *validator.Validate
	newTaskID      func() string
	streamInterval time.Duration
	drainTimeout   time.Duration
}

// Config holds server configuration and the collaborators it serves.
type Config struct {
	Port           int
	Registry       *tasks.Registry
	Launcher       *tasks.Launcher
	Runner         Runner
	Tokens         middleware.TokenValidator
	DB             *db.DB            // optional; pinged by /health and closed on shutdown
	RateLimit      *ratelimit.Config // nil uses ratelimit.LoadConfig
	StreamInterval time.Duration
	NewTaskID      func() string // nil uses random UUIDs
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil || cfg.Launcher == nil || cfg.Runner == nil {
		return nil, errors.New("server requires a registry, launcher and runner")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("server requires a token validator")
	}

	s := &Server{
		registry:       cfg.Registry,
		launcher:       cfg.Launcher,
		runner:         cfg.Runner,
		db:             cfg.DB,
		validate:       newValidator(),
		newTaskID:      cfg.NewTaskID,
		streamInterval: cfg.StreamInterval,
		drainTimeout:   30 * time.Second,
	}
	if s.newTaskID == nil {
		s.newTaskID = newTaskID
	}
	if s.streamInterval <= 0 {
		s.streamInterval = DefaultStreamInterval
	}

	rl := cfg.RateLimit
	if rl == nil {
		rl = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rl)

	auth := middleware.AuthMiddleware(cfg.Tokens)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.Handle("POST /campaigns/{campaign_id}/generate", protected(s.handleGenerate))
	mux.Handle("POST /campaigns/{campaign_id}/generate/day", protected(s.handleGenerateDay))
	mux.Handle("GET /tasks/{task_id}", protected(s.handleGetTask))
	mux.Handle("GET /tasks/{task_id}/stream", protected(s.handleStreamTask))
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // task streams stay open until the task finishes
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then stops accepting requests and
// waits for running tasks before returning.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	return s.Shutdown()
}

// Shutdown stops the HTTP server, drains in-flight tasks and releases
// resources.
func (s *Server) Shutdown() error {
	log.Println("[server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.launcher.Wait(ctx); err != nil {
		log.Printf("[server] tasks still running at shutdown: %v", err)
	}

	s.rateLimiter.Stop()
	if s.db != nil {
		s.db.Close()
	}
	log.Println("[server] stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth reports liveness and, when configured, database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "tasks": s.registry.Len()}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
			s.jsonResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleError maps err onto a status code and writes it.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	var ve *ErrValidation
	if errors.As(err, &ve) {
		s.jsonResponse(w, status, map[string]string{"error": ve.Error(), "field": ve.Field})
		return
	}
	s.errorResponse(w, status, err.Error())
}

// clientID identifies the caller for rate limiting by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if secs := int(info.RetryAfter.Round(time.Second).Seconds()); secs > 0 {
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	log.Printf("[rate-limit] rate limit exceeded: limit=%d remaining=%d", info.Limit, info.Remaining)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
