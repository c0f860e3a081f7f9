package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"studyhall/internal/services"
)

const tokenIssuer = "studyhall"

// Authenticator mints and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator builds an authenticator. A zero ttl mints tokens that
// never expire.
func NewAuthenticator(secret string, ttl time.Duration) (*Authenticator, error) {
	if len(strings.TrimSpace(secret)) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Mint issues a token for subject.
func (a *Authenticator) Mint(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("mint token: subject required")
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Issuer:   tokenIssuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if a.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return signed, nil
}

// Verify validates token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "invalid or expired token", err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "token has no subject", nil)
	}
	return claims.Subject, nil
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for websocket clients that cannot set headers.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// requireAuth rejects requests without a valid token and stores the subject
// in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, services.Wrap(services.ErrUnauthorized, "auth", "verify", "missing bearer token", nil))
			return
		}
		subject, err := s.auth.Verify(token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(services.WithSubject(r.Context(), subject)))
	}
}

func subjectFrom(ctx context.Context) string {
	subject, _ := services.SubjectFromContext(ctx)
	return subject
}
