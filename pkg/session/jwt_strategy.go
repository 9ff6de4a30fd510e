package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionClaims is the signed session payload for the token-encoded
// strategy.
type sessionClaims struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Picture      string `json:"picture,omitempty"`
	Role         string `json:"role,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	jwt.RegisteredClaims
}

// JWTStrategy implements the token-encoded session strategy: the session
// is a self-contained HMAC-signed payload with no server-side record.
type JWTStrategy struct {
	secret []byte
	cfg    *Config
	now    func() time.Time
}

// NewJWTStrategy creates the token-encoded strategy. The configuration
// must carry a signing secret.
func NewJWTStrategy(cfg *Config) (*JWTStrategy, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		return nil, configurationError("signing secret is required")
	}

	return &JWTStrategy{
		secret: []byte(cfg.Secret),
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// CreateSession signs a new session payload for user. account's tokens,
// when present, are embedded in the payload.
func (s *JWTStrategy) CreateSession(ctx context.Context, user User, account *Account) (*Session, error) {
	session := &Session{
		User:    user,
		Expires: s.now().Add(s.cfg.MaxAge),
	}

	if account != nil && account.Tokens != nil {
		session.AccessToken = account.Tokens.AccessToken
		session.RefreshToken = account.Tokens.RefreshToken
	}

	token, err := s.Encode(session)
	if err != nil {
		return nil, err
	}

	session.SessionToken = token
	return session, nil
}

// GetSession decodes the transport-supplied token. Any decode failure,
// including an expired payload, is an absent session, not an error.
func (s *JWTStrategy) GetSession(ctx context.Context, r Request) (*Session, error) {
	raw := r.Get(s.cfg.Cookie.Name)
	if raw == "" {
		return nil, nil
	}
	return s.Decode(raw), nil
}

// UpdateSession applies sliding-window renewal: the payload is re-signed
// with a fresh expiry only when the remaining lifetime dropped below the
// update age.
func (s *JWTStrategy) UpdateSession(ctx context.Context, session *Session) (*Session, error) {
	if session == nil {
		return nil, nil
	}

	if session.Expires.Sub(s.now()) >= s.cfg.UpdateAge {
		return session, nil
	}

	return s.RefreshSession(ctx, session)
}

// RefreshSession unconditionally re-signs the payload with a fresh
// expiry, preserving any embedded upstream tokens.
func (s *JWTStrategy) RefreshSession(ctx context.Context, session *Session) (*Session, error) {
	if session == nil {
		return nil, nil
	}

	renewed := *session
	renewed.Expires = s.now().Add(s.cfg.MaxAge)

	token, err := s.Encode(&renewed)
	if err != nil {
		return nil, err
	}

	renewed.SessionToken = token
	return &renewed, nil
}

// DeleteSession clears the session value on the response. A request
// without a session token is a no-op.
func (s *JWTStrategy) DeleteSession(ctx context.Context, r Request, w Response) error {
	if r.Get(s.cfg.Cookie.Name) == "" {
		return nil
	}
	w.Delete(s.cfg.Cookie.Name, s.cfg.cookieOptions(0))
	return nil
}

// Encode signs a session payload whose exp claim is the session's
// Expires value.
func (s *JWTStrategy) Encode(session *Session) (string, error) {
	now := s.now()

	claims := sessionClaims{
		Name:         session.User.Name,
		Email:        session.User.Email,
		Picture:      session.User.Image,
		Role:         session.User.Role,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.Expires),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", configurationError("signing session payload: " + err.Error())
	}
	return token, nil
}

// Decode parses and verifies a signed payload. It returns nil for any
// failure: bad signature, malformed token, or expired payload. Expiry is
// checked explicitly against the clock in addition to the parser's own
// validation.
func (s *JWTStrategy) Decode(raw string) *Session {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}

	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil
	}

	return &Session{
		User: User{
			ID:    claims.Subject,
			Name:  claims.Name,
			Email: claims.Email,
			Image: claims.Picture,
			Role:  claims.Role,
		},
		Expires:      claims.ExpiresAt.Time,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		SessionToken: raw,
	}
}
