package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	uploads  *Uploader
	log      *logrus.Logger
}

func NewProfileHandler(profiles *services.ProfileService, uploads *Uploader, log *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, uploads: uploads, log: log}
}

// profileFileLimits allows one cover image and one file per audio slot.
func profileFileLimits() FileLimits {
	limits := FileLimits{services.CoverImageField: 1}
	for i := 0; i < services.MaxAudioFields; i++ {
		limits[services.AudioField(i)] = 1
	}
	return limits
}

func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	up, err := h.uploads.Parse(w, r, profileFileLimits())
	if err != nil {
		writeUploadError(w, r, h.log, err)
		return
	}
	defer up.Done()

	p, err := h.profiles.Create(r.Context(), up.Values, up.Batch)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, models.NewMessageResponse("Profile submitted for review", p))
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	p, err := h.profiles.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

// ListAcceptedCards serves the memorial board.
func (h *ProfileHandler) ListAcceptedCards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	cards, err := h.profiles.AcceptedCards(ctx)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to list profiles")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(cards))
}

func (h *ProfileHandler) ListAccepted(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.ProfileStatusAccepted)
}

func (h *ProfileHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.ProfileStatusPending)
}

func (h *ProfileHandler) ListDeclined(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.ProfileStatusDeclined)
}

func (h *ProfileHandler) listByStatus(w http.ResponseWriter, r *http.Request, status models.ProfileStatus) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	profiles, err := h.profiles.ListByStatus(ctx, status)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to list profiles")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(profiles))
}

func (h *ProfileHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	p, err := h.profiles.UpdateStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Status updated", p))
}

func (h *ProfileHandler) AddAchievement(w http.ResponseWriter, r *http.Request) {
	var req models.AddAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	p, err := h.profiles.AddAchievement(ctx, chi.URLParam(r, "id"), req.Achievement)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to add achievement")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Achievement added", p))
}

func (h *ProfileHandler) AddTimeline(w http.ResponseWriter, r *http.Request) {
	var req models.AddTimelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	p, err := h.profiles.AddTimeline(ctx, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to add timeline entry")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Timeline entry added", p))
}

func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	if err := h.profiles.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err, "Failed to delete profile")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Profile deleted", nil))
}
