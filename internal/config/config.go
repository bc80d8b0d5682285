package config

import "fmt"

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	BackendConfig
	StorageConfig
	AccessConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetStaticDir() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type AccessConfig interface {
	GetAccess() Access
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Backend
	Storage
	access Access
}

func (c mainConfig) GetAccess() Access {
	return c.access
}

// New builds the process configuration. Access rules are read once from
// ACCESS_CONFIG_FILE when set, otherwise the built-in defaults apply.
func New() (Config, error) {
	access := DefaultAccess()
	if path := GetEnv(accessConfigFileVar, ""); path != "" {
		loaded, err := LoadAccess(path)
		if err != nil {
			return nil, fmt.Errorf("[config New] %w", err)
		}
		access = loaded
	}
	return mainConfig{access: access}, nil
}

// WithAccess builds a configuration that reads the environment as New does
// but uses the given access rules.
func WithAccess(access Access) Config {
	return mainConfig{access: access}
}
