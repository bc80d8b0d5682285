package config

import "time"

// Session lifecycle thresholds. These are the only copies of the numbers;
// the tracker, refresher and gatekeeper all read them through SessionConfig.
const (
	WarnThreshold     = 300 * time.Second
	RefreshThreshold  = 600 * time.Second
	CoarseInterval    = 30 * time.Second
	CountdownInterval = 1 * time.Second
)

type SessionConfig interface {
	GetWarnThreshold() time.Duration
	GetRefreshThreshold() time.Duration
	GetCoarseCheckInterval() time.Duration
	GetCountdownInterval() time.Duration
	GetSessionCookieName() string
	GetBackgroundRefreshTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetWarnThreshold() time.Duration {
	return WarnThreshold
}

func (Session) GetRefreshThreshold() time.Duration {
	return RefreshThreshold
}

func (Session) GetCoarseCheckInterval() time.Duration {
	return CoarseInterval
}

func (Session) GetCountdownInterval() time.Duration {
	return CountdownInterval
}

func (Session) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE", "m8_session")
}

// GetBackgroundRefreshTimeout bounds the fire-and-forget refresh started by the gatekeeper.
func (Session) GetBackgroundRefreshTimeout() time.Duration {
	return GetEnvDuration("BACKGROUND_REFRESH_TIMEOUT", 10*time.Second)
}
