package config

// BackendConfig describes the hosted auth service the dashboard signs users in with.
type BackendConfig interface {
	GetAuthTokenURL() string
	GetAuthLogoutURL() string
	GetAuthClientID() string
	GetAuthClientSecret() string
	GetAuthJWTSecret() string
	GetAuthOIDCIssuer() string
	IsBackendConfigured() bool
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetAuthTokenURL() string {
	return GetEnv("AUTH_TOKEN_URL", "")
}

func (Backend) GetAuthLogoutURL() string {
	return GetEnv("AUTH_LOGOUT_URL", "")
}

func (Backend) GetAuthClientID() string {
	return GetEnv("AUTH_CLIENT_ID", "")
}

func (Backend) GetAuthClientSecret() string {
	return GetEnv("AUTH_CLIENT_SECRET", "")
}

// GetAuthJWTSecret is the HS256 secret access tokens are signed with.
func (Backend) GetAuthJWTSecret() string {
	return GetEnv("AUTH_JWT_SECRET", "")
}

// GetAuthOIDCIssuer enables issuer discovery and JWKS verification instead of the shared secret.
func (Backend) GetAuthOIDCIssuer() string {
	return GetEnv("AUTH_OIDC_ISSUER", "")
}

func (b Backend) IsBackendConfigured() bool {
	if b.GetAuthOIDCIssuer() != "" {
		return true
	}
	return b.GetAuthTokenURL() != "" && b.GetAuthJWTSecret() != ""
}
