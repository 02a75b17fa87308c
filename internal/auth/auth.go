package auth

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ishan662/Employee-Management-System-backend/internal/ids"
)

const (
	defaultIssuer   = "ems-api"
	defaultTokenTTL = time.Hour
)

var errMissingSecret = errors.New("auth secret is not configured")

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)

// Claims is the authorization snapshot embedded in an access token.
type Claims struct {
	Email       string   `json:"email"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasRole reports exact, case-sensitive membership. An empty role never matches.
func (c *Claims) HasRole(name string) bool {
	return c != nil && c.Role != "" && c.Role == name
}

// HasPermission reports exact, case-sensitive membership in the permission snapshot.
func (c *Claims) HasPermission(name string) bool {
	if c == nil || name == "" {
		return false
	}
	return slices.Contains(c.Permissions, name)
}

// IssuedToken is a signed access token together with the claims it carries.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
	Claims      Claims
}

// TokenIssuer signs and verifies HS256 access tokens. The secret is fixed at construction.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures TokenIssuer behavior.
type IssuerOption func(*TokenIssuer)

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) IssuerOption {
	return func(t *TokenIssuer) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			t.issuer = issuer
		}
	}
}

// WithTTL configures access token lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokenIssuer builds an issuer around the signing secret.
func NewTokenIssuer(secret string, opts ...IssuerOption) (*TokenIssuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errMissingSecret
	}
	t := &TokenIssuer{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL returns the configured access token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for user. The role and its permissions are read from
// user.Role; a user without a role gets an empty role and no permissions.
func (t *TokenIssuer) Issue(user User) (IssuedToken, error) {
	if strings.TrimSpace(user.ID) == "" {
		return IssuedToken{}, errors.New("user id is required")
	}
	now := t.now().UTC()
	expires := now.Add(t.ttl)

	claims := Claims{
		Email:       user.Email,
		Permissions: []string{},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        ids.New(),
		},
	}
	if user.Role != nil {
		claims.Role = user.Role.Name
		claims.Permissions = dedupeNames(user.Role.PermissionNames())
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{AccessToken: signed, ExpiresAt: expires, Claims: claims}, nil
}

// Verify checks signature, issuer and expiry and returns the embedded claims.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.Permissions == nil {
		claims.Permissions = []string{}
	}
	return claims, nil
}

func dedupeNames(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
