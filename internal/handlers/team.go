package handlers

import (
	"errors"
	"net/http"

	"github.com/nikhil/teamglow/internal/demo"
	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/middleware"
)

type TeamHandler struct {
	Store *demo.Store
	Log   *logger.Logger
}

func NewTeamHandler(store *demo.Store, log *logger.Logger) *TeamHandler {
	return &TeamHandler{Store: store, Log: log}
}

// Members lists the caller's direct reports. Managers only.
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	members, err := h.Store.TeamMembers(userID)
	if errors.Is(err, demo.ErrForbidden) {
		respondWithError(w, http.StatusForbidden, "Only managers can view team members")
		return
	}
	if err != nil {
		h.Log.Error("Failed to list team members", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list team members")
		return
	}

	h.Log.WithContext(r.Context()).Debug("Team members fetched", "user_id", userID, "count", len(members))
	respondWithJSON(w, http.StatusOK, members)
}
