package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/middleware"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *logrus.Logger
}

func NewAuthHandler(auth *services.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	resp, err := h.auth.Login(&req)
	if err != nil {
		h.log.WithField("username", req.Username).Warn("login rejected")
		writeError(w, r, h.log, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

// Check reports the principal behind the bearer token.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}
