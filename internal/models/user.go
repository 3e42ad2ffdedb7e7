package models

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Capability names an action on a protected route.
type Capability string

const (
	CapReviewProfiles   Capability = "profiles:review"
	CapModerateProfiles Capability = "profiles:moderate"
	CapDeleteProfiles   Capability = "profiles:delete"
)

// Principal is the caller identified by a verified bearer token.
type Principal struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Principal Principal `json:"principal"`
}

func (r *LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Username == "" {
		errors["username"] = "Username is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}
