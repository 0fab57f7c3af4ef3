// Package http serves the club dashboard page, its HTMX partials, the
// selection endpoints and a small JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"clubstats/internal/cache"
	"clubstats/internal/controller"
	"clubstats/internal/log"
	"clubstats/internal/middleware/ratelimit"
	"clubstats/internal/middleware/security"
	"clubstats/internal/middleware/trace"
	"clubstats/internal/selection"
	appweb "clubstats/web"
)

// Dashboard is the reactive core the server presents. *controller.Controller
// implements it.
type Dashboard interface {
	State() *selection.State
	View() controller.View
	WaitIdle(ctx context.Context) error
	Running() bool
	Status() controller.Status
	Discarded() uint64
}

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// WaitTimeout bounds how long a request waits for a pending recompute
	// before the last published view is served.
	WaitTimeout time.Duration
	// CacheStats reports the aggregate cache on /metrics when set.
	CacheStats func() cache.Stats
	// Ready is an extra readiness check, such as a database ping.
	Ready func(ctx context.Context) error
	// Templates overrides the embedded templates.
	Templates fs.FS
}

type Server struct {
	http.Server
	templates   *template.Template
	dash        Dashboard
	logger      *log.Logger
	detector    *security.Detector
	limiter     *ratelimit.Limiter
	tracer      *trace.Middleware
	cacheStats  func() cache.Stats
	ready       func(context.Context) error
	waitTimeout time.Duration
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, dash Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	templatesFS := opts.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}

	s := &Server{
		dash:        dash,
		logger:      logger,
		detector:    security.NewDetector(logger.WithComponent(log.ComponentSecurity)),
		cacheStats:  opts.CacheStats,
		ready:       opts.Ready,
		waitTimeout: opts.WaitTimeout,
		started:     time.Now(),
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Logger:            logger.WithComponent(log.ComponentRateLimit),
	})
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
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
	mux.HandleFunc("/ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("/selection", s.handleSetSelection)
	mux.HandleFunc("/selection/toggle", s.handleToggle)
	mux.HandleFunc("/selection/all", s.handleSelectAll)
	mux.HandleFunc("/api/clubs", s.handleClubs)
	mux.HandleFunc("/api/dashboard", s.handleDashboardJSON)
	mux.HandleFunc("/charts/", s.handleChart)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// currentView waits for a pending recompute and returns the published view.
// On timeout the last published view is returned.
func (s *Server) currentView(ctx context.Context) controller.View {
	wctx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()
	if err := s.dash.WaitIdle(wctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Serving last published dashboard view", log.FieldError, err)
	}
	return s.dash.View()
}
