package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"carecompanion/internal/domain"
)

const (
	purposeAccess = "access"
	purposeState  = "fitness_state"

	stateTTL = 10 * time.Minute
)

// Claims is the payload of every token the service signs.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string      `json:"user_id"`
	Role    domain.Role `json:"role,omitempty"`
	Purpose string      `json:"purpose"`
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer whose access tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an access token for u.
func (t *TokenIssuer) Issue(u *domain.User) (string, error) {
	return t.sign(u.ID, u.Role, purposeAccess, t.ttl)
}

// Verify parses an access token and returns its claims.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	return t.parse(token, purposeAccess)
}

func (t *TokenIssuer) issueState(userID string) (string, error) {
	return t.sign(userID, "", purposeState, stateTTL)
}

func (t *TokenIssuer) verifyState(state string) (string, error) {
	c, err := t.parse(state, purposeState)
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}

func (t *TokenIssuer) sign(userID string, role domain.Role, purpose string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
