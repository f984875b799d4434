package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"bills/internal/log"
	"bills/internal/middleware/ratelimit"
	"bills/internal/middleware/security"
	"bills/internal/middleware/trace"
	"bills/internal/services"
	appweb "bills/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *log.Logger
	// Registry receives the HTTP and selector metrics and backs /metrics.
	// A private registry is created when nil.
	Registry *prometheus.Registry
}

type Server struct {
	http.Server
	svc       *services.BillService
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	validator *formValidator
	metrics   *selectorMetrics
	logger    *log.Logger
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, svc *services.BillService) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.ConfigFromEnv(log.ComponentHTTP))
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	t, err := template.New("bills").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	metrics := newSelectorMetrics(opts.Registry)
	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:       svc,
		templates: t,
		limiter:   ratelimit.NewLimiter(limiterCfg),
		detector:  security.NewDetector(metrics.suspicious),
		validator: newFormValidator(),
		metrics:   metrics,
		logger:    opts.Logger,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	if err := s.routes(mux, opts.Registry); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, trace.NewMetrics(opts.Registry))
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detector.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = log.Middleware(opts.Logger)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	s.Handler = handler

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, reg *prometheus.Registry) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/bills", s.handleBillsPartial)
	mux.HandleFunc("GET /ui/bills/{id}/edit", s.handleEditForm)
	mux.HandleFunc("GET /ui/summary", s.handleSummaryPartial)

	mux.HandleFunc("POST /bills", s.handleCreateBill)
	mux.HandleFunc("POST /bills/{id}", s.handleUpdateBill)
	mux.HandleFunc("PUT /bills/{id}", s.handleUpdateBill)
	mux.HandleFunc("DELETE /bills/{id}", s.handleDeleteBill)
	mux.HandleFunc("DELETE /bills/{id}/delete", s.handleDeleteBill)
	mux.HandleFunc("POST /bills/{id}/delete", s.handleDeleteBill)
	mux.HandleFunc("POST /budget", s.handleSetBudget)
	mux.HandleFunc("POST /theme", s.handleSetTheme)

	mux.HandleFunc("GET /api/bills", s.handleAPIBills)
	mux.HandleFunc("GET /api/affordable", s.handleAPIAffordable)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return nil
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a template into a buffer so a failing template never
// leaves a half written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Template execution failed", err, log.OpRender,
			log.NewFields().WithComponent(log.ComponentHTTP))
		InternalServerError("Something went wrong, please try again").Write(w)
		return
	}
	NewHTMXResponse().Status(status).Body(buf.Bytes()).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}

// writeError maps err to a status and writes it as JSON or as an htmx
// error fragment.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, op,
			log.NewFields().WithComponent(log.ComponentHTTP))
	} else {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Request rejected",
			log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err.Error())
	}

	msg := clientMessage(status, err)
	if wantsJSON(r) {
		JSONError(w, status, msg)
		return
	}
	ErrorResponse(status, msg).Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.rateLimited.Inc()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)

	const msg = "Rate limit exceeded. Please try again later."
	if wantsJSON(r) {
		JSONError(w, http.StatusTooManyRequests, msg)
		return
	}
	ErrorResponse(http.StatusTooManyRequests, msg).Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
