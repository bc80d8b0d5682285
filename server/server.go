package server

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/auth"
	"github.com/jpilocastillo/m8bizz-sub004/costcenters"
	"github.com/jpilocastillo/m8bizz-sub004/entitlements"
	"github.com/jpilocastillo/m8bizz-sub004/gatekeeper"
	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/internal/metrics"
	"github.com/jpilocastillo/m8bizz-sub004/profiles"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
)

// Deps are the collaborators the server is built from. Pages and Now are
// optional, the rest are required.
type Deps struct {
	Auth        auth.Service
	Sessions    sessions.Repo
	Profiles    profiles.Repo
	CostCenters costcenters.Repo
	Metrics     *metrics.Metrics
	Pages       fs.FS // Built frontend, nil serves the placeholder pages
	Now         func() time.Time
	Spawn       func(func()) // Launches background refreshes, nil uses a goroutine
}

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	mux          *http.ServeMux
	handler      http.Handler
	routes       []string
	config       config.Config
	access       config.Access
	rules        gatekeeper.Rules
	auth         auth.Service
	sessions     sessions.Repo
	profiles     profiles.Repo
	costCenters  costcenters.Repo
	refresher    *refresher.Refresher
	gate         *gatekeeper.Gatekeeper
	entitlements entitlements.Filter
	metrics      *metrics.Metrics
	pages        fs.FS
	now          func() time.Time

	loginTemplate *template.Template
	pageTemplate  *template.Template
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Sessions == nil || deps.Profiles == nil || deps.CostCenters == nil {
		return nil, fmt.Errorf("[Server New] auth, sessions, profiles and cost centers are required: %w", apperrors.ErrNotConfigured)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		env:          cfg.GetEnv(),
		mux:          http.NewServeMux(),
		config:       cfg,
		access:       cfg.GetAccess(),
		rules:        gatekeeper.RulesFromAccess(cfg.GetAccess()),
		auth:         deps.Auth,
		sessions:     deps.Sessions,
		profiles:     deps.Profiles,
		costCenters:  deps.CostCenters,
		metrics:      deps.Metrics,
		pages:        deps.Pages,
		now:          deps.Now,
		entitlements: entitlements.New(entitlements.FromAccess(cfg.GetAccess())),
	}

	var err error
	if s.loginTemplate, err = ParseTemplate("login.html"); err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse login template: %w", err)
	}
	if s.pageTemplate, err = ParseTemplate("page.html"); err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page template: %w", err)
	}

	s.refresher = refresher.New(deps.Auth, deps.Sessions, cfg,
		refresher.WithNow(deps.Now),
		refresher.WithRecorder(deps.Metrics),
	)

	gateOpts := []gatekeeper.Option{
		gatekeeper.WithNow(deps.Now),
		gatekeeper.WithRecorder(deps.Metrics),
		gatekeeper.WithoutBackgroundRefresh(handlesOwnRefresh),
	}
	if deps.Spawn != nil {
		gateOpts = append(gateOpts, gatekeeper.WithSpawner(deps.Spawn))
	}
	s.gate = gatekeeper.New(
		s.rules,
		profiles.RoleLookup{Repo: deps.Profiles},
		s.refresher,
		gatekeeper.CookieLoader(cfg.GetSessionCookieName(), deps.Sessions),
		cfg,
		gateOpts...,
	)

	s.initRoutes()
	s.handler = ChainMiddleware(s.gate.Middleware(s.mux).ServeHTTP, s.RequestMiddleware()...)
	s.logRoutes()

	return s, nil
}

// ServeHTTP runs every request through the gatekeeper before the route table.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
