package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/costcenters"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
	"github.com/rs/zerolog/log"
)

const maxCostCenterBody = 1 << 20

type costCentersResponse struct {
	Items     []costcenters.CostCenter `json:"items"`
	UpdatedAt time.Time                `json:"updated_at"`
	Summary   costcenters.Summary      `json:"summary"`
}

type putCostCentersRequest struct {
	Items []costcenters.CostCenter `json:"items"`
}

func newCostCentersResponse(doc costcenters.Document) costCentersResponse {
	return costCentersResponse{
		Items:     doc.Items,
		UpdatedAt: doc.UpdatedAt,
		Summary:   costcenters.Summarize(doc.Items),
	}
}

func (s *Server) GetCostCentersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}

		doc, err := costcenters.GetOrEmpty(r.Context(), s.costCenters, sess.User.ID)
		if err != nil {
			log.Err(err).Str("user_id", sess.User.ID).Msg("failed to load cost centers")
			writeError(w, http.StatusInternalServerError, "failed to load cost centers")
			return
		}
		writeJSON(w, http.StatusOK, newCostCentersResponse(doc))
	}
}

// PutCostCentersHandler makes sure the session will outlive the save before
// writing. A failed refresh is logged and the save goes ahead while the
// session is still live.
func (s *Server) PutCostCentersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}

		var req putCostCentersRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCostCenterBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, err := s.refresher.EnsureFresh(r.Context(), sess)
		switch outcome {
		case refresher.OutcomeExpired, refresher.OutcomeNoSession:
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		case refresher.OutcomeFailed:
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("refresh before save failed")
		}

		doc := costcenters.Document{UserID: sess.User.ID, Items: req.Items, UpdatedAt: s.now().UTC()}
		if doc.Items == nil {
			doc.Items = []costcenters.CostCenter{}
		}
		if err := doc.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.costCenters.Put(r.Context(), doc); err != nil {
			log.Err(err).Str("user_id", sess.User.ID).Msg("failed to save cost centers")
			writeError(w, http.StatusInternalServerError, "failed to save cost centers")
			return
		}
		writeJSON(w, http.StatusOK, newCostCentersResponse(doc))
	}
}

func (s *Server) ExportCostCentersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "no session")
			return
		}

		doc, err := costcenters.GetOrEmpty(r.Context(), s.costCenters, sess.User.ID)
		if err != nil {
			log.Err(err).Str("user_id", sess.User.ID).Msg("failed to load cost centers")
			writeError(w, http.StatusInternalServerError, "failed to load cost centers")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="cost-centers.csv"`)
		if err := costcenters.WriteCSV(w, costcenters.Summarize(doc.Items)); err != nil {
			log.Err(err).Str("user_id", sess.User.ID).Msg("failed to write cost centers csv")
		}
	}
}

