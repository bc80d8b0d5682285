package config

import "time"

type StorageConfig interface {
	GetDatabaseURL() string
	GetRedisURL() string
	GetDBMaxOpenConns() int
	GetDBMaxIdleConns() int
	GetDBConnMaxLifetime() time.Duration
	GetSessionTTL() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}

func (Storage) GetDBMaxOpenConns() int {
	return GetEnvInt("DB_MAX_OPEN_CONNS", 10)
}

func (Storage) GetDBMaxIdleConns() int {
	return GetEnvInt("DB_MAX_IDLE_CONNS", 5)
}

func (Storage) GetDBConnMaxLifetime() time.Duration {
	return GetEnvDuration("DB_CONN_MAX_LIFE", 30*time.Minute)
}

// GetSessionTTL is how long a stored session outlives its refresh window.
func (Storage) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 7*24*time.Hour)
}
