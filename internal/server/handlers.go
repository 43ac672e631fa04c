package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/platesplit/platesplit/internal/storage"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DinerCount int `json:"dinerCount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := s.svc.CreateSession(r.Context(), req.DinerCount)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.tokens.Generate(session.ID)
	if err != nil {
		slog.Error("Failed to mint session token", "session_id", session.ID, "error", err)
		// Without a token the session is unreachable; don't leave it behind.
		if resetErr := s.svc.ResetSession(r.Context(), session.ID); resetErr != nil {
			slog.Error("Failed to discard orphaned session", "session_id", session.ID, "error", resetErr)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId":    session.ID,
		"token":        token,
		"participants": toParticipantsJSON(session.Ledger.Participants()),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participants": toParticipantsJSON(snap.Participants),
		"items":        toItemsJSON(snap.Items),
		"totals":       toTotalsJSON(snap.Totals),
	})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.Totals(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTotalsJSON(totals))
}

func (s *Server) handleSetServiceCharge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.SetServiceChargeRate(r.Context(), chi.URLParam(r, "sessionID"), req.Rate); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"rate": req.Rate})
}

func (s *Server) handleRenameParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.svc.RenameParticipant(r.Context(),
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "participantID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	itemID, err := s.svc.AddItem(r.Context(), chi.URLParam(r, "sessionID"), req.Name, req.Price, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"itemId": itemID})
}

func (s *Server) handleRenameItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.svc.RenameItem(r.Context(),
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.RemoveItem(r.Context(),
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearItems(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTogglePayer reports the sole-payer rejection as applied=false with a
// 200 status: it is an expected business-rule rejection, not an error.
func (s *Server) handleTogglePayer(w http.ResponseWriter, r *http.Request) {
	applied, payers, err := s.svc.TogglePayer(r.Context(),
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"), chi.URLParam(r, "participantID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"payers":  payers,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.svc.Submit(r.Context(), chi.URLParam(r, "sessionID"), req.InviteCode)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			writeError(w, err)
			return
		}
		// Upstream failure: reported to the caller, ledger state untouched.
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "submitted",
		"code":   result.Code,
	})
}
