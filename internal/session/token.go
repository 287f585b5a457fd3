package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/domainerr"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an issued bearer token.
const DefaultTokenTTL = 72 * time.Hour

var ErrUnauthorized = domainerr.New("session", "ErrUnauthorized", http.StatusUnauthorized,
	"invalid or expired token")

// Claims identifies the user and the server-side session behind a token.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokens(secret string, ttl time.Duration, c clock.Clock) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: c}
}

// Issue signs a token for userID bound to sessionID.
func (t *Tokens) Issue(userID, sessionID string) (string, error) {
	now := t.clock.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates a token and returns its claims.
func (t *Tokens) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.clock.Now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized.WithCause(err)
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrUnauthorized.WithDetail("invalid token claims")
	}
	return claims, nil
}
