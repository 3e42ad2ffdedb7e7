package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
)

type OfferingHandler struct {
	offerings *services.OfferingService
	uploads   *Uploader
	log       *logrus.Logger
}

func NewOfferingHandler(offerings *services.OfferingService, uploads *Uploader, log *logrus.Logger) *OfferingHandler {
	return &OfferingHandler{offerings: offerings, uploads: uploads, log: log}
}

func (h *OfferingHandler) CreateOffering(w http.ResponseWriter, r *http.Request) {
	up, err := h.uploads.Parse(w, r, FileLimits{
		services.OfferingImagesField: models.MaxOfferingImages,
		services.OfferingAudiosField: models.MaxOfferingAudios,
	})
	if err != nil {
		writeUploadError(w, r, h.log, err)
		return
	}
	defer up.Done()

	view, err := h.offerings.Create(r.Context(), up.Values, up.Batch)
	if err != nil {
		writeError(w, r, h.log, err, "Failed to create offering")
		return
	}
	writeJSON(w, http.StatusCreated, models.NewMessageResponse("Offering submitted", view))
}

func (h *OfferingHandler) ListByProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	views, err := h.offerings.ListByProfile(ctx, chi.URLParam(r, "profileId"))
	if err != nil {
		writeError(w, r, h.log, err, "Failed to list offerings")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(views))
}
