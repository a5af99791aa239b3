package auth

import (
	"fmt"
	"time"

	"songvault/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig holds the signing parameters, read once at construction.
type TokenConfig struct {
	Issuer   string
	Audience string
	Secret   []byte
	Expiry   time.Duration
}

// Claims is the token payload: subject (username), a unique token id, the
// role list, issuer, audience and expiry. Tokens are stateless; there is no
// server-side session store.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service validates credentials against an injected table and mints signed
// tokens with role claims.
type Service struct {
	creds *CredentialStore
	cfg   TokenConfig
}

// NewService wires the auth service.
func NewService(creds *CredentialStore, cfg TokenConfig) *Service {
	return &Service{creds: creds, cfg: cfg}
}

// Login checks the presented credentials and mints a token on match. A
// mismatch is the absent outcome (ok == false), never an error; err is
// reserved for signing failures.
func (s *Service) Login(username, password string) (token string, ok bool, err error) {
	rec, found := s.creds.Lookup(username)
	if !found || !VerifyPassword(password, rec.PasswordHash) {
		logger.Warn("login rejected", logger.String("username", username))
		return "", false, nil
	}

	token, err = s.mint(username, rec.Roles)
	if err != nil {
		return "", false, err
	}

	logger.Info("login succeeded", logger.String("username", username))
	return token, true, nil
}

// Parse validates a token's signature, issuer, audience and expiry and
// returns its claims.
func (s *Service) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.cfg.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func (s *Service) mint(username string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
