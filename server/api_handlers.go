package server

import (
	"net/http"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/rs/zerolog/log"
)

type navigationResponse struct {
	Items []config.NavItem `json:"items"`
}

// NavigationHandler returns the menu entries the signed-in user may see.
func (s *Server) NavigationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}
		items := s.entitlements.Visible(s.access.Navigation, sess.User.Email)
		writeJSON(w, http.StatusOK, navigationResponse{Items: items})
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}

		profile, err := s.profiles.GetByID(r.Context(), sess.User.ID)
		if apperrors.Is(err, apperrors.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		if err != nil {
			log.Err(err).Str("user_id", sess.User.ID).Msg("failed to load profile")
			writeError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
