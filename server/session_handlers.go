package server

import (
	"net/http"

	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/liveness"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
	"github.com/rs/zerolog/log"
)

// SessionStatus is what the expiry banner polls.
type SessionStatus struct {
	State            string `json:"state"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Countdown        string `json:"countdown"`
	ExpiresAt        int64  `json:"expires_at"`
	Email            string `json:"email"`
}

func (s *Server) sessionStatus(sess *sessions.Session) SessionStatus {
	status := liveness.Evaluate(sess, s.now(), s.config.GetWarnThreshold())
	return SessionStatus{
		State:            status.State.String(),
		RemainingSeconds: int64(status.Remaining.Seconds()),
		Countdown:        status.Countdown(),
		ExpiresAt:        sess.ExpiresAt,
		Email:            sess.User.Email,
	}
}

func (s *Server) SessionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}
		writeJSON(w, http.StatusOK, s.sessionStatus(sess))
	}
}

// SessionRefreshHandler backs the banner's refresh button.
func (s *Server) SessionRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}

		outcome, err := s.refresher.EnsureFresh(r.Context(), sess)
		switch outcome {
		case refresher.OutcomeRefreshed:
			renewed, getErr := s.sessions.Get(r.Context(), sess.ID)
			if getErr != nil {
				log.Err(getErr).Str("session_id", sess.ID).Msg("failed to reload refreshed session")
				writeJSON(w, http.StatusOK, s.sessionStatus(sess))
				return
			}
			writeJSON(w, http.StatusOK, s.sessionStatus(&renewed))
		case refresher.OutcomeFresh:
			writeJSON(w, http.StatusOK, s.sessionStatus(sess))
		case refresher.OutcomeFailed:
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("session refresh failed")
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "session refresh failed", Retryable: true})
		default:
			writeError(w, http.StatusUnauthorized, "session expired")
		}
	}
}
