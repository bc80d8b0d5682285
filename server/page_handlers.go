package server

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
)

type loginPageData struct {
	AppName string
	Title   string
	Action  string
	Next    string
	Error   string
}

type placeholderPageData struct {
	AppName    string
	Path       string
	Session    *SessionStatus
	Navigation []config.NavItem
}

// PageHandler serves the dashboard frontend. The gatekeeper has already
// decided the request may see the page.
func (s *Server) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		if s.pages != nil {
			s.serveBuiltPage(w, r)
			return
		}

		switch r.URL.Path {
		case RouteLogin, RouteAdminLogin:
			s.renderLoginPage(w, r)
		default:
			s.renderPlaceholderPage(w, r)
		}
	}
}

// serveBuiltPage maps /business-dashboard to business-dashboard.html or
// business-dashboard/index.html as a static export lays them out.
func (s *Server) serveBuiltPage(w http.ResponseWriter, r *http.Request) {
	name, ok := resolvePage(s.pages, r.URL.Path)
	if !ok {
		logError(r.Method, r.URL.Path, "page not found")
		http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		return
	}
	http.ServeFileFS(w, r, s.pages, name)
}

func resolvePage(fsys fs.FS, urlPath string) (string, bool) {
	clean := strings.TrimPrefix(path.Clean("/"+urlPath), "/")

	candidates := []string{clean, clean + ".html", path.Join(clean, "index.html")}
	if clean == "" {
		candidates = []string{"index.html"}
	}
	for _, name := range candidates {
		if name == "" || name == "." {
			continue
		}
		info, err := fs.Stat(fsys, name)
		if err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

func (s *Server) renderLoginPage(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{
		AppName: s.config.GetAppName(),
		Title:   "Sign in",
		Action:  RouteAuthLogin,
		Next:    safeRedirectTarget(r.URL.Query().Get("next"), s.access.HomePath),
		Error:   r.URL.Query().Get("error"),
	}
	if r.URL.Path == RouteAdminLogin {
		data.Title = "Admin sign in"
		if data.Next == s.access.HomePath {
			data.Next = "/admin"
		}
	}
	s.renderTemplate(w, r, s.loginTemplate, data)
}

func (s *Server) renderPlaceholderPage(w http.ResponseWriter, r *http.Request) {
	data := placeholderPageData{
		AppName: s.config.GetAppName(),
		Path:    r.URL.Path,
	}
	if sess, ok := currentSession(r); ok {
		status := s.sessionStatus(sess)
		data.Session = &status
		data.Navigation = s.entitlements.Visible(s.access.Navigation, sess.User.Email)
	}
	s.renderTemplate(w, r, s.pageTemplate, data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
