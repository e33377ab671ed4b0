package auth

import (
	"errors"
	"fmt"
)

const (
	// AdminSubject is the subject of every token the service issues.
	AdminSubject = "admin"
	// RoleAdmin grants access to the admin API.
	RoleAdmin = "admin"
)

var (
	// ErrInvalidCredentials is returned when the password does not match, or
	// when no admin password is configured.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrForbidden is returned for valid tokens without the admin role.
	ErrForbidden = errors.New("forbidden")
)

// Service authenticates the operator against the configured password hash
// and issues admin API tokens.
type Service struct {
	passwordHash string
	jwtConfig    *JWTConfig
}

// NewService creates a new authentication service. An empty passwordHash
// disables login.
func NewService(passwordHash string, jwtConfig *JWTConfig) *Service {
	return &Service{
		passwordHash: passwordHash,
		jwtConfig:    jwtConfig,
	}
}

// Login checks password and returns a signed admin token.
func (s *Service) Login(password string) (string, error) {
	if s.passwordHash == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if err := ComparePassword(s.passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, AdminSubject, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Authorize validates a token and requires the admin role.
func (s *Service) Authorize(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, ErrForbidden
	}
	return claims, nil
}
