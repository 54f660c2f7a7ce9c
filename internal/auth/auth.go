// Package auth authenticates the site administrator. A successful login yields
// a Session and a signed HS256 token carrying its id; the session can be
// revoked by logging out and lapses at its expiry.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const issuer = "ecosite-admin"

type Session struct {
	ID        string
	ExpiresAt time.Time

	mu      sync.Mutex
	revoked bool
	now     func() time.Time
}

// Active reports whether the session has neither expired nor been revoked.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.revoked && s.now().Before(s.ExpiresAt)
}

func (s *Session) revoke() {
	s.mu.Lock()
	s.revoked = true
	s.mu.Unlock()
}

type claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewAuthenticator(passwordHash, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
}

// Login checks password against the configured hash and opens a new session.
func (a *Authenticator) Login(password string) (*Session, string, error) {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := a.now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(a.ttl),
		now:       a.now,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	a.mu.Lock()
	a.pruneLocked()
	a.sessions[sess.ID] = sess
	a.mu.Unlock()

	return sess, signed, nil
}

// Verify resolves a token to its live session.
func (a *Authenticator) Verify(tokenString string) (*Session, error) {
	sid, err := a.parse(tokenString)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	sess, ok := a.sessions[sid]
	a.mu.Unlock()
	if !ok || !sess.Active() {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

// Logout revokes the session behind tokenString. Unknown or invalid tokens
// are ignored.
func (a *Authenticator) Logout(tokenString string) {
	sid, err := a.parse(tokenString)
	if err != nil {
		return
	}

	a.mu.Lock()
	sess, ok := a.sessions[sid]
	delete(a.sessions, sid)
	a.mu.Unlock()

	if ok {
		sess.revoke()
	}
}

func (a *Authenticator) parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.SID == "" {
		return "", ErrInvalidToken
	}
	return c.SID, nil
}

func (a *Authenticator) pruneLocked() {
	for id, s := range a.sessions {
		if !s.Active() {
			delete(a.sessions, id)
		}
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
