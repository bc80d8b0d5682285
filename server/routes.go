package server

import "net/http"

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Session banner
	s.RegisterRouteFunc("GET "+RouteAPISession, ChainMiddleware(s.SessionStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAPISessionRefresh, ChainMiddleware(s.SessionRefreshHandler(), s.APIMiddleware()...))

	// Dashboard API
	s.RegisterRouteFunc("GET "+RouteAPINavigation, ChainMiddleware(s.NavigationHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPIProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPICostCenters, ChainMiddleware(s.GetCostCentersHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("PUT "+RouteAPICostCenters, ChainMiddleware(s.PutCostCentersHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPICostCentersExport, ChainMiddleware(s.ExportCostCentersHandler(), s.APIMiddleware()...))

	// Operations
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())

	// Everything else is a dashboard page
	s.RegisterRouteFunc("GET "+RouteHome, ChainMiddleware(s.PageHandler(), s.HTMLMiddleWare(s.CompressionMiddleware)...))
}

// handlesOwnRefresh matches the routes the gatekeeper must not refresh for:
// sign-out ends the session and the others run the refresher inline.
func handlesOwnRefresh(r *http.Request) bool {
	switch r.URL.Path {
	case RouteAuthLogout:
		return true
	case RouteAPISessionRefresh:
		return r.Method == http.MethodPost
	case RouteAPICostCenters:
		return r.Method == http.MethodPut
	}
	return false
}
