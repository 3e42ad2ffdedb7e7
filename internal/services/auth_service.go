package services

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/devotee-memorial/backend/internal/models"
)

// RolePolicy maps each role to the capabilities it grants.
type RolePolicy map[models.Role][]models.Capability

func DefaultRolePolicy() RolePolicy {
	return RolePolicy{
		models.RoleAdmin: {
			models.CapReviewProfiles,
			models.CapModerateProfiles,
			models.CapDeleteProfiles,
		},
		models.RoleModerator: {
			models.CapReviewProfiles,
			models.CapModerateProfiles,
		},
	}
}

func (p RolePolicy) Allows(role models.Role, capability models.Capability) bool {
	for _, c := range p[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Account is a configured login. PasswordHash is a bcrypt hash.
type Account struct {
	Username     string
	PasswordHash string
	Role         models.Role
}

type AuthService struct {
	accounts      []Account
	policy        RolePolicy
	jwtSecret     []byte
	jwtExpiration time.Duration
	now           func() time.Time
}

func NewAuthService(accounts []Account, policy RolePolicy, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		accounts:      accounts,
		policy:        policy,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

func (s *AuthService) Policy() RolePolicy {
	return s.policy
}

// Login checks the credentials against the configured accounts and issues a
// token for the matching one. Without a signing secret nobody can log in.
func (s *AuthService) Login(req *models.LoginRequest) (*models.AuthResponse, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrAuthNotConfigured
	}
	var configured bool
	for _, acc := range s.accounts {
		if acc.PasswordHash == "" {
			continue
		}
		configured = true
		if subtle.ConstantTimeCompare([]byte(acc.Username), []byte(req.Username)) != 1 {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		return s.IssueToken(models.Principal{Subject: acc.Username, Role: acc.Role})
	}
	if !configured {
		return nil, ErrAuthNotConfigured
	}
	return nil, ErrInvalidCredentials
}

func (s *AuthService) IssueToken(p models.Principal) (*models.AuthResponse, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrAuthNotConfigured
	}
	now := s.now()
	expiresAt := now.Add(s.jwtExpiration)
	claims := jwt.MapClaims{
		"sub":  p.Subject,
		"role": string(p.Role),
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt.UTC().Truncate(time.Second),
		Principal: p,
	}, nil
}

// ParseToken verifies an HS256 token and returns its principal. Tokens for
// roles outside the policy are rejected.
func (s *AuthService) ParseToken(tokenString string) (*models.Principal, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	if _, known := s.policy[models.Role(role)]; !known {
		return nil, ErrInvalidToken
	}
	return &models.Principal{Subject: sub, Role: models.Role(role)}, nil
}
