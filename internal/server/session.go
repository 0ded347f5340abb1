package server

import (
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "setlist"

// Claims is the signed payload of a session token.
type Claims struct {
	AccessToken string `json:"accessToken"`
	Provider    string `json:"provider"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionService signs and verifies HS256 session tokens.
//
// A session token wraps the platform access token obtained at sign-in so that API callers
// only ever present one bearer credential.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a [SessionService]. A zero ttl defaults to one hour.
func NewSessionService(secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for the session and its expiry.
func (s *SessionService) Sign(session models.Session) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	claims := Claims{
		AccessToken: session.AccessToken,
		Provider:    session.Provider,
		Email:       session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   session.Email,
			ID:        shared.GenerateID(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a token and returns the session it carries.
//
// Every failure wraps [shared.ErrInvalidSession].
func (s *SessionService) Parse(token string) (*models.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.AccessToken == "" {
		return nil, fmt.Errorf("%w: invalid claims", shared.ErrInvalidSession)
	}

	return &models.Session{
		AccessToken: claims.AccessToken,
		Provider:    claims.Provider,
		Email:       claims.Email,
	}, nil
}
