package server

const (
	RouteHealth = "/healthz"

	RouteAPI         = "/api/v1/"
	RouteGitHubToken = "/api/v1/auth/github/token"
	RouteAuthRefresh = "/api/v1/auth/refresh"
	RouteAuthLogout  = "/api/v1/auth/logout"
	// RouteRefreshLogout sits under the refresh cookie path, so browsers send the
	// refresh cookie with it.
	RouteRefreshLogout = "/api/v1/auth/refresh/logout"
	RouteMe            = "/api/v1/me"
	RouteClientConfig  = "/api/v1/config"
)
