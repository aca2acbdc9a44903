package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"vendas/internal/core"
	vlog "vendas/internal/log"
	"vendas/internal/metrics"
	"vendas/internal/middleware/ratelimit"
	"vendas/internal/middleware/security"
	"vendas/internal/middleware/trace"
	"vendas/internal/services"
	appweb "vendas/web"
)

// RefreshPublisher queues a snapshot refresh, implemented by the AMQP client.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, reason string) error
}

// Deps are the collaborators of the server. Only Dashboard is required.
type Deps struct {
	Dashboard *services.DashboardService

	// Refresher refreshes the snapshot inline when no Publisher is set.
	Refresher services.Refresher
	Publisher RefreshPublisher

	// Ready reports backend readiness for /readyz.
	Ready func(ctx context.Context) error
	// LastRefresh reports the snapshot state, when there is one.
	LastRefresh func(ctx context.Context) (time.Time, int, error)

	Backend      string
	RateLimitRPM int
	Logger       *vlog.Logger
}

type Server struct {
	http.Server
	templates *template.Template

	dashboard *services.DashboardService
	refresher services.Refresher
	publisher RefreshPublisher
	ready     func(ctx context.Context) error
	snapshot  func(ctx context.Context) (time.Time, int, error)
	backend   string

	logger           *vlog.Logger
	events           *vlog.StructuredLogger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// templateFuncs are available to every page.
var templateFuncs = template.FuncMap{
	"cell": func(c core.Column, s core.Sale) string { return c.Value(s) },
	"selected": func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	},
	"hasColumn": func(cols []core.Column, c core.Column) bool {
		for _, x := range cols {
			if x == c {
				return true
			}
		}
		return false
	},
}

// parseTemplates loads the embedded page templates.
func parseTemplates() (*template.Template, error) {
	return template.New("pages").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = vlog.New(vlog.DefaultConfig())
	}
	logger = logger.WithComponent(vlog.ComponentHTTP)

	s := &Server{
		dashboard:        deps.Dashboard,
		refresher:        deps.Refresher,
		publisher:        deps.Publisher,
		ready:            deps.Ready,
		snapshot:         deps.LastRefresh,
		backend:          deps.Backend,
		logger:           logger,
		events:           vlog.NewStructuredLogger(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitRPM}),
		securityDetector: security.NewDetector(),
		started:          time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	t, err := parseTemplates()
	if err != nil {
		logger.Warn("Failed parsing templates", vlog.FieldError, err, vlog.FieldComponent, vlog.ComponentTemplate)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", vlog.FieldError, err)
	}

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	route := func(component string, h http.HandlerFunc) http.Handler {
		return limited(vlog.ComponentMiddleware(component)(h))
	}
	mux.Handle("GET /{$}", route(vlog.ComponentDashboard, s.handleDashboard))
	mux.Handle("GET /api/dashboard", route(vlog.ComponentDashboard, s.handleDashboardJSON))
	mux.Handle("GET /dados", route(vlog.ComponentRaw, s.handleRawData))
	mux.Handle("GET /dados.csv", route(vlog.ComponentExport, s.handleExportCSV))
	mux.Handle("POST /admin/refresh", route(vlog.ComponentRefresh, s.handleRefresh))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	var handler http.Handler = mux
	handler = vlog.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = vlog.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	vlog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		vlog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		vlog.FieldPath, r.URL.Path,
		vlog.FieldComponent, vlog.ComponentRateLimit)
	ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
}

// renderPage executes a page template, falling back to plain text when the
// templates failed to load.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			vlog.FieldPath, r.URL.Path,
			vlog.FieldComponent, vlog.ComponentTemplate,
			"error_type", vlog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			vlog.FieldError, err,
			"template", name,
			vlog.FieldOperation, vlog.OpRender)
	}
}

type errorPage struct {
	Status  int
	Title   string
	Message string
	Detail  string
}

// renderError answers a failed page request. Nothing of the page is
// rendered: a failed load shows only the error.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := requestStatus(r, err)
	ctx := r.Context()
	logger := vlog.FromContext(ctx)
	switch status {
	case http.StatusBadRequest:
		logger.WarnContext(ctx, "Invalid request", vlog.FieldError, err, vlog.FieldQuery, r.URL.RawQuery,
			"error_type", vlog.ErrorTypeValidation)
	case statusClientClosed:
		logger.DebugContext(ctx, "Client went away", vlog.FieldError, err)
		return
	default:
		logger.ErrorContext(ctx, "Failed to load sales records", vlog.FieldError, err,
			vlog.FieldBackend, s.backend, "error_type", vlog.ErrorTypeUpstream)
	}

	page := errorPage{
		Status:  status,
		Title:   http.StatusText(status),
		Message: errorMessage(status),
		Detail:  errorDetail(status, err),
	}
	if s.templates == nil {
		ErrorResponse(status, page.Message).Write(w)
		return
	}
	s.renderPage(w, r, status, "error.html", page)
}

// logSlow flags requests that took long enough to notice.
func logSlow(ctx context.Context, what string, start time.Time) {
	if d := time.Since(start); d > 2*time.Second {
		vlog.FromContext(ctx).WarnContext(ctx, "Slow "+what, vlog.FieldDuration, d.Milliseconds())
	}
}
