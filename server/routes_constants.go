package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Pages
	RouteHome       = "/"
	RouteLogin      = "/login"
	RouteAdminLogin = "/admin/login"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Session API
	RouteAPISession        = "/api/session"
	RouteAPISessionRefresh = "/api/session/refresh"

	// Dashboard API
	RouteAPINavigation        = "/api/navigation"
	RouteAPIProfile           = "/api/profile"
	RouteAPICostCenters       = "/api/cost-centers"
	RouteAPICostCentersExport = "/api/cost-centers/export.csv"

	// Operations
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)
