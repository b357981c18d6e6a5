// Package auth resolves ID tokens into sessions and gates operations by capability.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// Capability is the privilege a session was granted.
type Capability int

const (
	Guest Capability = iota
	User
	Admin
)

func (c Capability) String() string {
	switch c {
	case User:
		return "user"
	case Admin:
		return "admin"
	}
	return "guest"
}

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in session.
	ErrUnauthenticated = eris.New("auth: unauthenticated")
	// ErrForbidden is returned when the session lacks the required capability.
	ErrForbidden = eris.New("auth: forbidden")
)

// Session is the resolved identity of a caller.
type Session struct {
	UID        string     `json:"uid"`
	Name       string     `json:"name,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Capability Capability `json:"capability"`
}

// GuestSession is the session of an anonymous caller.
var GuestSession = Session{Capability: Guest}

// Require returns nil only when s has exactly capability c. Admin and user paths are separate:
// an admin session does not pass a user check.
func (s Session) Require(c Capability) error {
	if s.Capability == Guest || s.UID == "" {
		return ErrUnauthenticated
	}
	if s.Capability != c {
		return eris.Wrapf(ErrForbidden, "%s needs %s", s.Capability, c)
	}
	return nil
}

// Verifier checks HS256 ID tokens.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier returns a Verifier. An empty issuer skips the iss check.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Verify parses token and maps its admin/user claims to a capability. A valid token with
// neither claim resolves to a guest session.
func (v *Verifier) Verify(token string) (Session, error) {
	if token == "" {
		return GuestSession, ErrUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return v.secret, nil }, opts...)
	if err != nil || !parsed.Valid {
		return GuestSession, eris.Wrap(ErrUnauthenticated, "invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return GuestSession, eris.Wrap(ErrUnauthenticated, "invalid claims")
	}

	s := Session{Capability: Guest}
	s.UID, _ = claims["user_id"].(string)
	if s.UID == "" {
		s.UID, _ = claims["sub"].(string)
	}
	s.Name, _ = claims["name"].(string)
	s.Phone, _ = claims["phone_number"].(string)
	if s.UID == "" {
		return GuestSession, eris.Wrap(ErrUnauthenticated, "missing subject")
	}

	switch {
	case claims["admin"] == true:
		s.Capability = Admin
	case claims["user"] == true:
		s.Capability = User
	}
	return s, nil
}

// Issue signs a token for s that expires after ttl. Used by the CLI and tests.
func (v *Verifier) Issue(s Session, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.MapClaims{
		"sub":     s.UID,
		"user_id": s.UID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}
	if s.Name != "" {
		claims["name"] = s.Name
	}
	if s.Phone != "" {
		claims["phone_number"] = s.Phone
	}
	switch s.Capability {
	case Admin:
		claims["admin"] = true
	case User:
		claims["user"] = true
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	return signed, eris.Wrap(err, "auth: sign token")
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session on ctx, or GuestSession.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return GuestSession
}
