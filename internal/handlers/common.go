package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
	"github.com/devotee-memorial/backend/internal/storage"
)

const storeTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, storeTimeout)
}

// writeError maps service errors to status codes. Anything unrecognised is a
// 500 with the given message; the cause is only logged.
func writeError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error, message string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := models.NewValidationErrorResponse(verr.Fields)
		if len(verr.Fields) == 1 {
			for _, msg := range verr.Fields {
				resp.Error = msg
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, services.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
	case errors.Is(err, services.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid status"))
	case errors.Is(err, services.ErrCoverImageRequired):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cover image is required"))
	case errors.Is(err, services.ErrCoverImageInvalid):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cover image must be an image file"))
	case errors.Is(err, services.ErrCoverUploadFailed):
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Image upload failed"))
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid username or password"))
	case errors.Is(err, services.ErrAuthNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Login is not configured"))
	case errors.Is(err, storage.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, models.NewErrorResponse("File too large"))
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": chimw.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).Error(message)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse(message))
	}
}
