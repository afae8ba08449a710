package adapthttp

import (
	"net/http"

	"noteflow/internal/app"

	"github.com/sirupsen/logrus"
)

// Services groups the application services the adapter drives.
type Services struct {
	Journal    *app.JournalService
	Substances *app.SubstanceService
	Insights   *app.InsightService
	Data       *app.DataService
	Auth       *app.AuthService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	journal    *app.JournalService
	substances *app.SubstanceService
	insights   *app.InsightService
	data       *app.DataService
	authSvc    *app.AuthService

	oidcConfig  OIDCConfig
	logger      *logrus.Logger
	limiter     *clientLimiter
	webDir      string
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(svc Services, webDir string) *Server {
	return &Server{
		journal:    svc.Journal,
		substances: svc.Substances,
		insights:   svc.Insights,
		data:       svc.Data,
		authSvc:    svc.Auth,
		webDir:     webDir,
	}
}

// WithoutAuth disables authentication. All requests act as the local user.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithLogger sets the request and error logger.
func (s *Server) WithLogger(l *logrus.Logger) *Server {
	s.logger = l
	return s
}

// WithOIDC enables SSO login through the given provider.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithRateLimit limits each client on the unauthenticated write endpoints
// to perSecond requests with the given burst.
func (s *Server) WithRateLimit(perSecond float64, burst int) *Server {
	s.limiter = newClientLimiter(perSecond, burst)
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		api.Handle(pattern, instrument(pattern, h))
	}
	protected := func(pattern string, h http.HandlerFunc) {
		api.Handle(pattern, instrument(pattern, s.authMiddleware(h)))
	}
	limited := func(pattern string, h http.HandlerFunc) {
		api.Handle(pattern, instrument(pattern, s.rateLimit(h)))
	}

	handle("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	limited("/insights", s.handleInsights)
	protected("/insights/summary", s.handleInsightSummary)

	protected("/entries", s.handleEntries)
	protected("/entries/{id}", s.handleEntry)

	protected("/logs", s.handleLogs)
	protected("/logs/{id}", s.handleLog)

	protected("/data", s.handleDataClear)
	protected("/data/export", s.handleDataExport)
	protected("/data/import", s.handleDataImport)

	limited("/login", s.handleLogin)
	handle("/logout", s.handleLogout)
	limited("/setup", s.handleSetupUser)
	handle("/config", s.handleConfig)
	handle("/auth/sso/login", s.handleSSOLogin)
	handle("/auth/sso/callback", s.handleSSOCallback)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", withBodyLimit(api)))
	root.Handle("/metrics", metricsHandler())
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
