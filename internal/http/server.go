package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expenses/internal/charts"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	appweb "expenses/web"
)

// Options configures the optional collaborators of a Server. Zero values get
// sensible defaults.
type Options struct {
	Currency string
	Logger   *log.Logger
	Limiter  *ratelimit.Limiter
	Resolver *security.ClientIPResolver
	Headers  *security.HeadersConfig
	Charts   *charts.Generator
}

type Server struct {
	http.Server
	templates *template.Template
	tracker   *services.Tracker
	charts    *charts.Generator
	limiter   *ratelimit.Limiter
	trace     *trace.Middleware
	resolver  *security.ClientIPResolver
	logger    *log.Logger
	currency  string
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, tracker *services.Tracker, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	if opts.Resolver == nil {
		opts.Resolver = security.NewClientIPResolver()
	}
	if opts.Charts == nil {
		opts.Charts = charts.NewGenerator()
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		tracker:   tracker,
		charts:    opts.Charts,
		limiter:   opts.Limiter,
		trace:     trace.NewMiddleware(opts.Resolver.ClientIP, opts.Logger),
		resolver:  opts.Resolver,
		logger:    logger,
		currency:  opts.Currency,
		started:   time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	// Draft updates fire on every keystroke, so only ledger mutations are limited.
	limited := s.limiter.Middleware(s.resolver.ClientIP, s.onRateLimited)
	mux.Handle("/expenses", limited(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("/expenses/delete", limited(http.HandlerFunc(s.handleDeleteExpense)))
	mux.HandleFunc("/ui/ledger", s.handleLedger)
	mux.HandleFunc("/ui/draft", s.handleDraft)
	mux.HandleFunc("/chart.png", s.handleChart)
	mux.HandleFunc("/export.xlsx", s.handleExport)

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(headers).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(opts.Logger)(h)
	h = s.trace.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Limiter exposes the rate limiter so its cleanup loop can be run alongside
// the server.
func (s *Server) Limiter() *ratelimit.Limiter {
	return s.limiter
}

// Charts exposes the chart generator so its render cache can be swept.
func (s *Server) Charts() *charts.Generator {
	return s.charts
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.resolver.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
