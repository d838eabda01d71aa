package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/teamglow/internal/demo"
	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/middleware"
	"github.com/nikhil/teamglow/internal/models"
)

// FeedbackHandler serves the /feedback routes of the demo API.
type FeedbackHandler struct {
	Store *demo.Store
	Log   *logger.Logger
}

func NewFeedbackHandler(store *demo.Store, log *logger.Logger) *FeedbackHandler {
	return &FeedbackHandler{Store: store, Log: log}
}

// List returns feedback authored by (manager) or addressed to (employee) the caller.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	items, err := h.Store.ListFeedback(userID)
	if err != nil {
		h.respondStoreError(w, r, "Failed to list feedback", err)
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

// Create stores new feedback. Only managers may create.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(draft); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Store.CreateFeedback(userID, draft)
	if err != nil {
		h.respondStoreError(w, r, "Failed to create feedback", err)
		return
	}

	h.Log.WithContext(r.Context()).Info("Feedback created", "feedback_id", created.ID, "user_id", userID)
	respondWithJSON(w, http.StatusCreated, created)
}

// Update applies a partial update. Only the authoring manager may edit.
func (h *FeedbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var changes models.Changes
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(changes); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.Store.UpdateFeedback(userID, mux.Vars(r)["id"], changes)
	if err != nil {
		h.respondStoreError(w, r, "Failed to update feedback", err)
		return
	}

	h.Log.WithContext(r.Context()).Info("Feedback updated", "feedback_id", updated.ID, "user_id", userID)
	respondWithJSON(w, http.StatusOK, updated)
}

// Acknowledge marks feedback as read by the receiving employee.
func (h *FeedbackHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	acked, err := h.Store.AcknowledgeFeedback(userID, mux.Vars(r)["id"])
	if err != nil {
		h.respondStoreError(w, r, "Failed to acknowledge feedback", err)
		return
	}

	h.Log.WithContext(r.Context()).Info("Feedback acknowledged", "feedback_id", acked.ID, "user_id", userID)
	respondWithJSON(w, http.StatusOK, acked)
}

func (h *FeedbackHandler) respondStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, demo.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Feedback not found")
	case errors.Is(err, demo.ErrForbidden):
		h.Log.WithContext(r.Context()).Warn("Unauthorized feedback access", "error", err)
		respondWithError(w, http.StatusForbidden, "Unauthorized")
	case errors.Is(err, demo.ErrUnknownEmployee):
		respondWithError(w, http.StatusBadRequest, "Unknown employee")
	default:
		h.Log.Error(msg, "error", err)
		respondWithError(w, http.StatusInternalServerError, msg)
	}
}
